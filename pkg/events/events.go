// Package events provides an in-process, synchronous domain event bus.
// Domain systems publish facts about completed operations; subscribers such as
// the audit log and metrics collector consume them.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event describes a completed domain operation.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	Target     string         `json:"target"`
	Outcome    string         `json:"outcome"`
	Actor      string         `json:"actor"`
	ActorRole  string         `json:"actor_role"`
	Context    string         `json:"context,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Handler consumes a published event.
type Handler func(ctx context.Context, e Event) error

// System delivers published events to every subscriber.
type System interface {
	// Subscribe registers a handler. Handlers are invoked in registration order.
	Subscribe(h Handler)
	// Publish delivers e synchronously to all subscribers. A failing subscriber
	// is logged and does not prevent delivery to the remaining subscribers.
	Publish(ctx context.Context, e Event)
}

type bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an event bus with no subscribers.
func New(logger *slog.Logger) System {
	return &bus{
		handlers: make([]Handler, 0),
		logger:   logger.With("system", "events"),
		now:      time.Now,
	}
}

func (b *bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *bus) Publish(ctx context.Context, e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = b.now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			b.logger.Warn(
				"event subscriber failed",
				"type", e.Type,
				"target", e.Target,
				"error", err,
			)
		}
	}
}
