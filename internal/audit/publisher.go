package audit

import (
	"context"
	"sync"
	"time"
)

// Store is the append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByHash(ctx context.Context, hash string) ([]Event, error)
}

// Publisher captures structured audit events. Writes go through the store
// directly, or through a buffered inbox drained by a Worker when async mode is
// enabled. Reads always hit the store, so a trail read may briefly lag an
// async emit.
type Publisher struct {
	store Store
	inbox chan Event
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// NewAsyncPublisher buffers emits through an inbox so ledger operations never
// block on the audit sink. Run the returned Worker for the publisher's
// lifetime.
func NewAsyncPublisher(store Store, buffer int) (*Publisher, *Worker) {
	inbox := make(chan Event, buffer)
	return &Publisher{store: store, inbox: inbox}, NewWorker(store, inbox)
}

// Emit records an event. In async mode a full inbox falls back to a direct
// append rather than dropping the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.inbox != nil {
		select {
		case p.inbox <- event:
			return nil
		default:
		}
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, hash string) ([]Event, error) {
	return p.store.ListByHash(ctx, hash)
}

// InMemoryStore keeps events in process memory, grouped by document hash.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Hash] = append(s.events[event.Hash], event)
	return nil
}

func (s *InMemoryStore) ListByHash(_ context.Context, hash string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[hash]...), nil
}
