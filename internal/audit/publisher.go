package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands events to the background worker without blocking the
// request path. Audit is observability, not a transition side effect: a full
// inbox drops the event with a warning rather than failing the transition.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox is consumed by the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit records an event. Nil-safe so services can run without auditing.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", string(event.Action),
			"entity_id", event.EntityID,
		)
	}
}
