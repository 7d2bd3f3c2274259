package models

import "time"

// Subscription status values as reported by Stripe, plus not_started for
// customers that never had (or no longer have) a subscription.
const (
	SubscriptionStatusNotStarted        = "not_started"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusPaused            = "paused"
)

// StripeSubscription mirrors the latest subscription state of a Stripe
// customer. There is exactly one row per customer id.
type StripeSubscription struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CustomerID         string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_stripe_subscriptions_customer" json:"customer_id"`
	SubscriptionID     *string   `gorm:"type:varchar(191);default:null" json:"subscription_id,omitempty"`
	PriceID            *string   `gorm:"type:varchar(191);default:null" json:"price_id,omitempty"`
	CurrentPeriodStart *int64    `gorm:"default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *int64    `gorm:"default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool      `gorm:"default:false" json:"cancel_at_period_end"`
	PaymentMethodBrand *string   `gorm:"type:varchar(32);default:null" json:"payment_method_brand,omitempty"`
	PaymentMethodLast4 *string   `gorm:"type:varchar(4);default:null" json:"payment_method_last4,omitempty"`
	Status             string    `gorm:"type:varchar(32);not null;default:'not_started';index" json:"status"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StripeSubscription) TableName() string {
	return "stripe_subscriptions"
}

// IsEntitling reports whether the subscription currently grants access.
func (s *StripeSubscription) IsEntitling() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}
