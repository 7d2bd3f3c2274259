package models

import "time"

const (
	StripeOrderStatusPending   = "pending"
	StripeOrderStatusCompleted = "completed"
	StripeOrderStatusCanceled  = "canceled"
)

// StripeOrder is the financial audit record written for every paid one-time
// checkout session, before any booking or product order is derived from it.
// Amounts are kept in minor units as delivered by Stripe.
type StripeOrder struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CheckoutSessionID string    `gorm:"type:varchar(191);not null;index" json:"checkout_session_id"`
	PaymentIntentID   string    `gorm:"type:varchar(191);not null;index" json:"payment_intent_id"`
	CustomerID        string    `gorm:"type:varchar(191);not null;index" json:"customer_id"`
	AmountSubtotal    int64     `gorm:"not null" json:"amount_subtotal"`
	AmountTotal       int64     `gorm:"not null" json:"amount_total"`
	Currency          string    `gorm:"type:varchar(8);not null" json:"currency"`
	PaymentStatus     string    `gorm:"type:varchar(32);not null" json:"payment_status"`
	Status            string    `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StripeOrder) TableName() string {
	return "stripe_orders"
}
