package events

import "context"

// Publisher delivers domain events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) error { return nil }
func (NopPublisher) Close() error                            { return nil }
