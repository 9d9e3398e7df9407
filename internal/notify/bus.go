package notify

import (
	"log/slog"
	"sync"
	"time"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

// Change kinds published on the bus.
const (
	EventCreated   = "event.created"
	EventUpdated   = "event.updated"
	EventDeleted   = "event.deleted"
	EventCompleted = "event.completed"
)

// Notification describes one schedule change. The event snapshot is the
// state after the change; for deletions it is the last stored state.
type Notification struct {
	Kind  string
	Event *v1.Event
	At    time.Time
}

// Subscriber receives schedule change notifications. Implementations must
// not block: Publish fans out synchronously on the request path.
type Subscriber interface {
	Notify(n Notification)
}

// Bus is a synchronous observer registry for schedule changes.
// The zero value is not usable; call NewBus.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]Subscriber)}
}

// Subscribe registers a subscriber under a name, replacing any previous
// subscriber with the same name.
func (b *Bus) Subscribe(name string, s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = s
}

// Unsubscribe removes a subscriber. Unknown names are a no-op.
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, name)
}

// Publish delivers the notification to every subscriber. Delivery order is
// unspecified.
func (b *Bus) Publish(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		s.Notify(n)
	}
}

// SlogSubscriber logs every schedule change through the structured logger.
type SlogSubscriber struct{}

func (SlogSubscriber) Notify(n Notification) {
	slog.Info("Schedule changed",
		"kind", n.Kind,
		"owner_id", n.Event.OwnerID,
		"event_id", n.Event.ID,
		"at", n.At)
}
