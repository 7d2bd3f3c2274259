package models

import "time"

// StripeWebhookEvent is the processing ledger for classified Stripe events.
// Only metadata is stored, never the event payload.
type StripeWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EventID         string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_stripe_webhook_events_event" json:"event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Classification  string     `gorm:"type:varchar(32);not null" json:"classification"`
	CustomerID      string     `gorm:"type:varchar(191);index" json:"customer_id"`
	ClaimedAt       *time.Time `gorm:"default:null" json:"claimed_at,omitempty"`
	ProcessedAt     *time.Time `gorm:"default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StripeWebhookEvent) TableName() string {
	return "stripe_webhook_events"
}

// Succeeded reports whether the event was processed without error.
func (e *StripeWebhookEvent) Succeeded() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}

// Failed reports whether the event finished with a processing error.
func (e *StripeWebhookEvent) Failed() bool {
	return e.ProcessedAt != nil && e.ProcessingError != ""
}
