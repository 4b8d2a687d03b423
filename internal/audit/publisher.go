package audit

import (
	"context"
	"time"
)

// Store is the write-only sink contract.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

// NewPublisher constructs a Publisher over the given sink.
func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit appends one event, stamping the time if the caller did not.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}
