package jobqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/internal/pkg/billing"
	"github.com/ManuelReschke/PayFox/internal/pkg/billing/billingtest"
)

type fakeReconciler struct {
	seen []stripe.Event
	err  error
}

func (r *fakeReconciler) Handle(_ context.Context, event stripe.Event) (*billing.Outcome, error) {
	r.seen = append(r.seen, event)
	if r.err != nil {
		return nil, r.err
	}
	return &billing.Outcome{
		EventID:    event.ID,
		EventType:  string(event.Type),
		Kind:       billing.KindSubscriptionSync,
		CustomerID: "cus_1",
	}, nil
}

func TestStripeEventJob_RoundTrip(t *testing.T) {
	rec := &fakeReconciler{}
	q := startedLocalQueue(t, 1)
	q.Register(JobTypeStripeEvent, StripeEventMaxRetries, StripeEventHandler(rec))

	raw := billingtest.EventJSON("evt_job", "invoice.paid", `{"id":"in_1","customer":"cus_1"}`)
	event := billingtest.Event("evt_job", "invoice.paid", `{"id":"in_1","customer":"cus_1"}`)

	job, err := DispatchStripeEvent(context.Background(), q, event, raw)
	require.NoError(t, err)
	assert.Equal(t, JobTypeStripeEvent, job.Type)
	assert.Equal(t, 0, job.MaxRetries)
	assert.Equal(t, "evt_job", job.Payload["event_id"])

	done, err := q.Await(awaitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, done.Status)
	assert.Equal(t, "subscription_sync", done.Result["classification"])
	assert.Equal(t, "cus_1", done.Result["customer_id"])

	require.Len(t, rec.seen, 1)
	assert.Equal(t, "evt_job", rec.seen[0].ID)
	assert.Contains(t, string(rec.seen[0].Data.Raw), `"cus_1"`)
}

func TestStripeEventJob_FailureIsObservable(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("sync failed")}
	q := startedLocalQueue(t, 1)
	q.Register(JobTypeStripeEvent, StripeEventMaxRetries, StripeEventHandler(rec))

	raw := billingtest.EventJSON("evt_fail", "invoice.paid", `{"customer":"cus_1"}`)
	job, err := DispatchStripeEvent(context.Background(), q, billingtest.Event("evt_fail", "invoice.paid", `{"customer":"cus_1"}`), raw)
	require.NoError(t, err)

	done, err := q.Await(awaitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, done.Status)
	assert.Equal(t, "sync failed", done.ErrorMsg)
	assert.Len(t, rec.seen, 1)
}

func TestStripeEventHandler_BadPayload(t *testing.T) {
	h := StripeEventHandler(&fakeReconciler{})
	_, err := h(context.Background(), &Job{Payload: map[string]interface{}{"event_id": "evt_x", "event_json": "{not json"}})
	assert.Error(t, err)
}
