package ledger

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"truthchain/pkg/platform/sentinel"
)

// InMemory keeps the ledger in process memory. It favors clarity over
// performance and backs unit tests as well as deployments that run without an
// external ledger. The mutex gives the same single-writer-per-address
// guarantee the real ledger provides.
type InMemory struct {
	mu        sync.RWMutex
	records   map[Address]*Record
	lastWrite time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[Address]*Record)}
}

// now returns a write timestamp that never moves backwards. Callers must hold
// the write lock.
func (s *InMemory) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastWrite) {
		t = s.lastWrite
	}
	s.lastWrite = t
	return t
}

func (s *InMemory) Read(_ context.Context, addr Address) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *InMemory) WriteIfAbsent(_ context.Context, rec *Record) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, occupied := s.records[rec.Address]; occupied {
		return nil, sentinel.ErrConflict
	}
	now := s.now()
	stored := cloneRecord(rec)
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[rec.Address] = stored
	return &Receipt{TxRef: uuid.NewString(), Timestamp: now}, nil
}

func (s *InMemory) Write(_ context.Context, rec *Record, expectedVersion int64) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[rec.Address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if existing.Version != expectedVersion {
		return nil, sentinel.ErrConflict
	}
	now := s.now()
	stored := cloneRecord(rec)
	stored.Version = existing.Version + 1
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = now
	s.records[rec.Address] = stored
	return &Receipt{TxRef: uuid.NewString(), Timestamp: now}, nil
}

func (s *InMemory) List(_ context.Context, namespace string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Namespace == namespace {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out, nil
}

func cloneRecord(rec *Record) *Record {
	c := *rec
	c.Payload = append([]byte(nil), rec.Payload...)
	return &c
}
