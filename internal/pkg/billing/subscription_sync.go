package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
)

// ErrSubscriptionSync wraps every failure of a customer sync.
var ErrSubscriptionSync = errors.New("subscription sync failed")

// SyncService mirrors the latest Stripe subscription of a customer into the
// local subscription table.
type SyncService struct {
	gateway Gateway
	repo    repository.SubscriptionRepository
}

func NewSyncService(gateway Gateway, repo repository.SubscriptionRepository) *SyncService {
	return &SyncService{gateway: gateway, repo: repo}
}

// SyncCustomer fetches the newest subscription in any status and writes it.
// Customers without a subscription get a not_started row; only the status
// of an existing row is touched in that case.
func (s *SyncService) SyncCustomer(ctx context.Context, customerID string) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrSubscriptionSync)
	}

	sub, err := s.gateway.LatestSubscription(ctx, customerID)
	if err != nil {
		log.Errorf("[SubscriptionSync] Failed to list subscriptions for %s: %v", customerID, err)
		return fmt.Errorf("%w: list subscriptions for %s: %w", ErrSubscriptionSync, customerID, err)
	}

	if sub == nil {
		log.Infof("[SubscriptionSync] No subscriptions found for customer: %s", customerID)
		if err := s.repo.UpsertNotStarted(ctx, customerID); err != nil {
			log.Errorf("[SubscriptionSync] Error updating subscription status for %s: %v", customerID, err)
			return fmt.Errorf("%w: store not_started for %s: %w", ErrSubscriptionSync, customerID, err)
		}
		return nil
	}

	record, hasPaymentMethod := SubscriptionFromStripe(customerID, sub)
	if err := s.repo.Upsert(ctx, record, hasPaymentMethod); err != nil {
		log.Errorf("[SubscriptionSync] Error syncing subscription for %s: %v", customerID, err)
		return fmt.Errorf("%w: store subscription for %s: %w", ErrSubscriptionSync, customerID, err)
	}

	log.Infof("[SubscriptionSync] Synced subscription %s for customer %s (status=%s)", sub.ID, customerID, sub.Status)
	return nil
}

// SubscriptionFromStripe maps a Stripe subscription onto the local row. The
// second return value reports whether an expanded payment method was
// present, in which case brand and last4 should be overwritten.
func SubscriptionFromStripe(customerID string, sub *stripe.Subscription) (*models.StripeSubscription, bool) {
	record := &models.StripeSubscription{
		CustomerID:         customerID,
		SubscriptionID:     stringPtr(sub.ID),
		CurrentPeriodStart: int64Ptr(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   int64Ptr(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		Status:             string(sub.Status),
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		record.PriceID = stringPtr(sub.Items.Data[0].Price.ID)
	}

	pm := sub.DefaultPaymentMethod
	// An unexpanded reference only carries the id.
	if pm == nil || (pm.Card == nil && pm.Type == "") {
		return record, false
	}
	if pm.Card != nil {
		record.PaymentMethodBrand = stringPtr(string(pm.Card.Brand))
		record.PaymentMethodLast4 = stringPtr(pm.Card.Last4)
	}
	return record, true
}

func stringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func int64Ptr(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
