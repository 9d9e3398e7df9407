package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

var (
	// ErrDuplicate is returned when an event with the same (owner_id, id)
	// already exists.
	ErrDuplicate = errors.New("event already exists")

	// ErrNotFound is returned when no event matches the given (owner_id, id).
	ErrNotFound = errors.New("event not found")

	// ErrEphemeral is returned on any attempt to persist a synthesized
	// recurring instance. Only base events are durable; generated instances
	// live for the duration of one query.
	ErrEphemeral = errors.New("recurring instances cannot be persisted")
)

// EventStore defines the interface for storing and retrieving base events.
// Implementations must uphold the persistence invariant: a SaveEvent or
// UpdateEvent call with an instance (IsInstance set) fails with ErrEphemeral.
type EventStore interface {
	SaveEvent(ctx context.Context, event *v1.Event) error

	GetEvent(ctx context.Context, ownerID, id string) (*v1.Event, error)

	UpdateEvent(ctx context.Context, event *v1.Event) error

	DeleteEvent(ctx context.Context, ownerID, id string) error

	// SetCompleted flips the completion flag of a one-off event.
	SetCompleted(ctx context.Context, ownerID, id string, completed bool) error

	// ListEvents returns all base events of an owner ordered by start time.
	// Used by backup/export, which must serialize base events only.
	ListEvents(ctx context.Context, ownerID string) ([]*v1.Event, error)

	// ListRegularEventsInRange returns non-recurring events whose start
	// falls within [start, end], ordered by start time.
	ListRegularEventsInRange(ctx context.Context, ownerID string, start, end time.Time) ([]*v1.Event, error)

	// ListRecurringEvents returns recurring base events that could produce
	// occurrences at or before the given horizon (base start <= until),
	// ordered by start time. End-date filtering is left to the occurrence
	// engine, which owns those semantics.
	ListRecurringEvents(ctx context.Context, ownerID string, until time.Time) ([]*v1.Event, error)
}
