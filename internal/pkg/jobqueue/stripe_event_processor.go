package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/internal/pkg/billing"
)

// StripeEventMaxRetries is zero: Stripe redelivers failed webhooks itself
// and the event ledger makes redelivery safe.
const StripeEventMaxRetries = 0

// EventReconciler handles a verified Stripe event.
type EventReconciler interface {
	Handle(ctx context.Context, event stripe.Event) (*billing.Outcome, error)
}

// DispatchStripeEvent enqueues a verified event for background processing.
func DispatchStripeEvent(ctx context.Context, d Dispatcher, event stripe.Event, raw []byte) (*Job, error) {
	payload := StripeEventJobPayload{
		EventID:   event.ID,
		EventType: string(event.Type),
		EventJSON: string(raw),
	}
	return d.Dispatch(ctx, JobTypeStripeEvent, payload.ToMap())
}

// StripeEventHandler decodes the job payload and runs the reconciler.
func StripeEventHandler(r EventReconciler) Handler {
	return func(ctx context.Context, job *Job) (map[string]interface{}, error) {
		payload, err := StripeEventJobPayloadFromMap(job.Payload)
		if err != nil {
			return nil, fmt.Errorf("invalid stripe event payload: %w", err)
		}

		var event stripe.Event
		if err := json.Unmarshal([]byte(payload.EventJSON), &event); err != nil {
			return nil, fmt.Errorf("decode stripe event %s: %w", payload.EventID, err)
		}

		outcome, err := r.Handle(ctx, event)
		if err != nil {
			return nil, err
		}
		log.Debugf("[JobQueue] Stripe event %s handled as %s", event.ID, outcome.Kind)
		return outcome.Fields(), nil
	}
}
