package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

type eventKey struct {
	ownerID string
	id      string
}

// MemoryStore is an in-memory implementation of EventStore.
// Useful for testing and development.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[eventKey]*v1.Event
}

// NewMemoryStore creates a new in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[eventKey]*v1.Event),
	}
}

func (s *MemoryStore) SaveEvent(_ context.Context, event *v1.Event) error {
	if event.IsInstance {
		return ErrEphemeral
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{event.OwnerID, event.ID}
	if _, exists := s.events[key]; exists {
		return ErrDuplicate
	}

	// Store a copy to prevent external modification
	copy := *event
	s.events[key] = &copy
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, ownerID, id string) (*v1.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.events[eventKey{ownerID, id}]
	if !exists {
		return nil, ErrNotFound
	}

	copy := *e
	return &copy, nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, event *v1.Event) error {
	if event.IsInstance {
		return ErrEphemeral
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{event.OwnerID, event.ID}
	if _, exists := s.events[key]; !exists {
		return ErrNotFound
	}

	copy := *event
	s.events[key] = &copy
	return nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{ownerID, id}
	if _, exists := s.events[key]; !exists {
		return ErrNotFound
	}

	delete(s.events, key)
	return nil
}

func (s *MemoryStore) SetCompleted(_ context.Context, ownerID, id string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.events[eventKey{ownerID, id}]
	if !exists {
		return ErrNotFound
	}

	e.Completed = completed
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, ownerID string) ([]*v1.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(e *v1.Event) bool {
		return e.OwnerID == ownerID
	}), nil
}

func (s *MemoryStore) ListRegularEventsInRange(_ context.Context, ownerID string, start, end time.Time) ([]*v1.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(e *v1.Event) bool {
		if e.OwnerID != ownerID || e.IsRecurring() {
			return false
		}
		return !e.StartTime.Before(start) && !e.StartTime.After(end)
	}), nil
}

func (s *MemoryStore) ListRecurringEvents(_ context.Context, ownerID string, until time.Time) ([]*v1.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(e *v1.Event) bool {
		return e.OwnerID == ownerID && e.IsRecurring() && !e.StartTime.After(until)
	}), nil
}

// collect returns copies of all matching events ordered by start time.
// Callers must hold at least the read lock.
func (s *MemoryStore) collect(match func(*v1.Event) bool) []*v1.Event {
	var result []*v1.Event
	for _, e := range s.events {
		if match(e) {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}
