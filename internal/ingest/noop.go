package ingest

import "context"

// No-op capability implementations, selected at construction when the
// corresponding external dependency is not configured. They keep degradation
// decisions in one place instead of runtime existence checks at call sites.

type NoopExtractor struct{}

func (NoopExtractor) ExtractText(context.Context, []byte) (string, error) {
	return "", nil
}

type NoopClassifier struct{}

func (NoopClassifier) Analyze(context.Context, string) (*Analysis, error) {
	return &Analysis{}, nil
}

// NoopContentStore archives nothing and returns an empty ref; callers then
// supply their own storage ref at registration time.
type NoopContentStore struct{}

func (NoopContentStore) Put(context.Context, string, []byte) (string, error) {
	return "", nil
}

func (NoopContentStore) Fetch(context.Context, string) ([]byte, error) {
	return nil, nil
}
