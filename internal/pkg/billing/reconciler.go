package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/events"
)

// DefaultClaimLease is how long a ledger claim blocks redeliveries of the
// same event. It must outlast the job timeout of the worker running it.
const DefaultClaimLease = 2 * time.Minute

// CustomerSyncer re-reads the subscription state of a customer.
type CustomerSyncer interface {
	SyncCustomer(ctx context.Context, customerID string) error
}

// PaymentHandler processes a paid one-time checkout session.
type PaymentHandler interface {
	Process(ctx context.Context, customerID string, session *stripe.CheckoutSession) (*PaymentResult, error)
}

// Reconciler turns verified Stripe events into local state changes.
type Reconciler struct {
	syncer    CustomerSyncer
	payments  PaymentHandler
	ledger    repository.WebhookEventRepository
	publisher events.Publisher

	claimLease time.Duration
}

// NewReconciler wires the reconciler. ledger may be nil to disable
// duplicate detection; publisher may be nil to disable domain events.
func NewReconciler(syncer CustomerSyncer, payments PaymentHandler, ledger repository.WebhookEventRepository, publisher events.Publisher) *Reconciler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Reconciler{syncer: syncer, payments: payments, ledger: ledger, publisher: publisher, claimLease: DefaultClaimLease}
}

// Handle classifies the event and runs the matching branch. Ignored events
// cause no writes at all.
func (r *Reconciler) Handle(ctx context.Context, event stripe.Event) (*Outcome, error) {
	classification, err := Classify(event)
	if err != nil {
		log.Errorf("[Reconciler] Failed to classify event %s: %v", event.ID, err)
		return nil, err
	}

	outcome := &Outcome{
		EventID:   event.ID,
		EventType: string(event.Type),
		Kind:      classification.Kind(),
	}

	switch c := classification.(type) {
	case Ignored:
		outcome.IgnoreReason = c.Reason
		if c.Reason == ReasonCustomerNotString {
			log.Errorf("[Reconciler] No customer received on event: %s", event.ID)
		} else {
			log.Debugf("[Reconciler] Ignoring event %s (%s): %s", event.ID, event.Type, c.Reason)
		}
		return outcome, nil

	case SubscriptionSync:
		outcome.CustomerID = c.CustomerID
		return r.runOnce(ctx, outcome, func(ctx context.Context) error {
			return r.syncer.SyncCustomer(ctx, c.CustomerID)
		})

	case OneTimePayment:
		outcome.CustomerID = c.CustomerID
		return r.runOnce(ctx, outcome, func(ctx context.Context) error {
			result, err := r.payments.Process(ctx, c.CustomerID, c.Session)
			outcome.Payment = result
			return err
		})

	default:
		return outcome, fmt.Errorf("unhandled event classification %T", classification)
	}
}

// runOnce guards fn with the event ledger. An event runs again only when its
// previous attempt failed or its claim expired; a succeeded or live claimed
// event is reported as a duplicate.
func (r *Reconciler) runOnce(ctx context.Context, outcome *Outcome, fn func(context.Context) error) (*Outcome, error) {
	var entry *models.StripeWebhookEvent
	if r.ledger != nil {
		created, stored, err := r.ledger.CreateIfNotExists(ctx, &models.StripeWebhookEvent{
			EventID:        outcome.EventID,
			EventType:      outcome.EventType,
			Classification: string(outcome.Kind),
			CustomerID:     outcome.CustomerID,
		})
		if err != nil {
			return outcome, fmt.Errorf("record webhook event %s: %w", outcome.EventID, err)
		}
		if !created {
			if stored.Succeeded() {
				log.Infof("[Reconciler] Event %s already processed, skipping", outcome.EventID)
				outcome.Duplicate = true
				return outcome, nil
			}
			claimed, err := r.ledger.Claim(ctx, stored.ID, r.claimLease)
			if err != nil {
				return outcome, fmt.Errorf("claim webhook event %s: %w", outcome.EventID, err)
			}
			if !claimed {
				log.Infof("[Reconciler] Event %s is being processed by another worker, skipping", outcome.EventID)
				outcome.Duplicate = true
				return outcome, nil
			}
		}
		entry = stored
	}

	procErr := fn(ctx)

	if entry != nil {
		msg := ""
		if procErr != nil {
			msg = procErr.Error()
		}
		if err := r.ledger.MarkProcessed(ctx, entry.ID, msg); err != nil {
			log.Errorf("[Reconciler] Failed to mark event %s processed: %v", outcome.EventID, err)
		}
	}

	if procErr != nil {
		log.Errorf("[Reconciler] Error processing event %s: %v", outcome.EventID, procErr)
		return outcome, procErr
	}

	r.publish(ctx, outcome)
	return outcome, nil
}

func (r *Reconciler) publish(ctx context.Context, outcome *Outcome) {
	for _, envelope := range envelopesFor(outcome) {
		if err := r.publisher.Publish(ctx, envelope); err != nil {
			log.Warnf("[Reconciler] Failed to publish %s for event %s: %v", envelope.Type, outcome.EventID, err)
		}
	}
}

func envelopesFor(outcome *Outcome) []events.Envelope {
	switch outcome.Kind {
	case KindSubscriptionSync:
		return []events.Envelope{
			events.NewEnvelope(events.TypeSubscriptionSynced, outcome.CustomerID, map[string]interface{}{
				"stripe_event_id": outcome.EventID,
				"customer_id":     outcome.CustomerID,
			}),
		}
	case KindOneTimePayment:
		p := outcome.Payment
		if p == nil {
			return nil
		}
		out := []events.Envelope{
			events.NewEnvelope(events.TypeOrderRecorded, outcome.CustomerID, map[string]interface{}{
				"stripe_event_id":     outcome.EventID,
				"customer_id":         outcome.CustomerID,
				"checkout_session_id": p.CheckoutSessionID,
				"audit_order_id":      p.AuditOrderID,
				"order_id":            p.OrderID,
			}),
		}
		if p.BookingID != "" {
			out = append(out, events.NewEnvelope(events.TypeBookingCreated, outcome.CustomerID, map[string]interface{}{
				"stripe_event_id": outcome.EventID,
				"booking_id":      p.BookingID,
			}))
		}
		return out
	default:
		return nil
	}
}
