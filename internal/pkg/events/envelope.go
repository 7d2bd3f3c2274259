package events

import (
	"time"

	"github.com/google/uuid"
)

// Domain event types emitted after a Stripe event was reconciled.
const (
	TypeSubscriptionSynced = "payment.subscription_synced"
	TypeOrderRecorded      = "payment.order_recorded"
	TypeBookingCreated     = "payment.booking_created"
)

const source = "payfox"

// Envelope is the JSON document written to the event stream.
type Envelope struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Source     string                 `json:"source"`
	Subject    string                 `json:"subject,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// NewEnvelope stamps a new envelope with a random id and the current time.
// subject is used as the partition key.
func NewEnvelope(eventType, subject string, data map[string]interface{}) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     source,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}
