package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/billing/billingtest"
	"github.com/ManuelReschke/PayFox/internal/pkg/events"
)

type reconcilerFixture struct {
	gateway   *billingtest.FakeGateway
	subs      *fakeSubscriptionRepo
	orders    *fakeOrderRepo
	bookings  *fakeConsultationRepo
	notifier  *fakeNotifier
	ledger    *fakeLedger
	publisher *fakePublisher
	r         *Reconciler
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		gateway:   &billingtest.FakeGateway{},
		subs:      &fakeSubscriptionRepo{},
		orders:    &fakeOrderRepo{},
		bookings:  &fakeConsultationRepo{},
		notifier:  &fakeNotifier{},
		ledger:    newFakeLedger(),
		publisher: &fakePublisher{},
	}
	f.r = NewReconciler(
		NewSyncService(f.gateway, f.subs),
		NewPaymentProcessor(f.orders, f.bookings, f.notifier),
		f.ledger,
		f.publisher,
	)
	return f
}

const consultationCheckout = `{
	"id":"cs_1","object":"checkout.session","customer":"cus_1","mode":"payment",
	"payment_status":"paid","payment_intent":"pi_1","amount_subtotal":9900,"amount_total":9900,
	"currency":"usd","customer_details":{"email":"ada@example.com","name":"Ada"},
	"metadata":{"type":"consultation","serviceId":"intro-30","scheduledDate":"2026-05-01T09:00:00Z"}
}`

func TestHandle_IgnoredEventsWriteNothing(t *testing.T) {
	objects := map[string]string{
		"product.created":               `{"id":"prod_1"}`,
		EventPaymentIntentSucceeded:     `{"id":"pi_1","customer":"cus_1","invoice":null}`,
		"customer.subscription.updated": `{"id":"sub_1","customer":42}`,
	}
	for eventType, object := range objects {
		f := newReconcilerFixture()
		out, err := f.r.Handle(context.Background(), billingtest.Event("evt_"+eventType, eventType, object))
		require.NoError(t, err)
		assert.Equal(t, KindIgnored, out.Kind)
		assert.NotEmpty(t, out.IgnoreReason)
		assert.Empty(t, f.ledger.rows, eventType)
		assert.Zero(t, f.subs.writes(), eventType)
		assert.Empty(t, f.orders.audits, eventType)
		assert.Empty(t, f.gateway.ListCalls, eventType)
		assert.Empty(t, f.publisher.envelopes, eventType)
	}
}

func TestHandle_SubscriptionSync(t *testing.T) {
	f := newReconcilerFixture()
	out, err := f.r.Handle(context.Background(), billingtest.Event("evt_1", "customer.subscription.deleted", `{"id":"sub_1","customer":"cus_7"}`))
	require.NoError(t, err)

	assert.Equal(t, KindSubscriptionSync, out.Kind)
	assert.Equal(t, "cus_7", out.CustomerID)
	assert.Equal(t, []string{"cus_7"}, f.gateway.ListCalls)
	assert.Equal(t, []string{"cus_7"}, f.subs.notStarted)

	row := f.ledger.rows["evt_1"]
	require.NotNil(t, row)
	assert.True(t, row.Succeeded())

	require.Len(t, f.publisher.envelopes, 1)
	assert.Equal(t, events.TypeSubscriptionSynced, f.publisher.envelopes[0].Type)
}

func TestHandle_OneTimePayment(t *testing.T) {
	f := newReconcilerFixture()
	out, err := f.r.Handle(context.Background(), billingtest.Event("evt_2", EventCheckoutSessionCompleted, consultationCheckout))
	require.NoError(t, err)

	require.NotNil(t, out.Payment)
	assert.Equal(t, "booking-1", out.Payment.BookingID)
	assert.Equal(t, "intro-30", f.bookings.bookings[0].ServiceID)
	assert.Equal(t, []string{"booking-1"}, f.notifier.bookingIDs)
	assert.Empty(t, f.gateway.ListCalls)

	require.Len(t, f.publisher.envelopes, 2)
	assert.Equal(t, events.TypeOrderRecorded, f.publisher.envelopes[0].Type)
	assert.Equal(t, events.TypeBookingCreated, f.publisher.envelopes[1].Type)

	fields := out.Fields()
	assert.Equal(t, "one_time_payment", fields["classification"])
	assert.Equal(t, "booking-1", fields["booking_id"])
}

func TestHandle_DuplicateDeliveryIsSkipped(t *testing.T) {
	f := newReconcilerFixture()
	ev := billingtest.Event("evt_3", EventCheckoutSessionCompleted, consultationCheckout)

	_, err := f.r.Handle(context.Background(), ev)
	require.NoError(t, err)
	out, err := f.r.Handle(context.Background(), ev)
	require.NoError(t, err)

	assert.True(t, out.Duplicate)
	assert.Len(t, f.orders.audits, 1)
	assert.Len(t, f.bookings.bookings, 1)
	assert.Len(t, f.notifier.bookingIDs, 1)
}

func TestHandle_FailedEventIsRetriedOnRedelivery(t *testing.T) {
	f := newReconcilerFixture()
	f.gateway.ListErr = errBoom
	ev := billingtest.Event("evt_4", "invoice.paid", `{"id":"in_1","customer":"cus_1"}`)

	_, err := f.r.Handle(context.Background(), ev)
	require.ErrorIs(t, err, ErrSubscriptionSync)
	assert.Contains(t, f.ledger.rows["evt_4"].ProcessingError, "boom")
	assert.Empty(t, f.publisher.envelopes)

	f.gateway.ListErr = nil
	out, err := f.r.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.True(t, f.ledger.rows["evt_4"].Succeeded())
}

func TestHandle_InFlightEventIsNotRunTwice(t *testing.T) {
	f := newReconcilerFixture()
	ev := billingtest.Event("evt_8", EventCheckoutSessionCompleted, consultationCheckout)

	// another worker claimed the event and has not finished it yet
	created, _, err := f.ledger.CreateIfNotExists(context.Background(), &models.StripeWebhookEvent{
		EventID:        "evt_8",
		EventType:      EventCheckoutSessionCompleted,
		Classification: string(KindOneTimePayment),
		CustomerID:     "cus_1",
	})
	require.NoError(t, err)
	require.True(t, created)

	out, err := f.r.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, out.Duplicate)
	assert.Empty(t, f.orders.audits)
	assert.Empty(t, f.bookings.bookings)
	assert.Zero(t, f.notifier.calls())
	assert.Nil(t, f.ledger.rows["evt_8"].ProcessedAt)
}

func TestHandle_ExpiredClaimIsTakenOver(t *testing.T) {
	f := newReconcilerFixture()
	ev := billingtest.Event("evt_9", EventCheckoutSessionCompleted, consultationCheckout)

	stale := time.Now().Add(-2 * DefaultClaimLease)
	_, _, err := f.ledger.CreateIfNotExists(context.Background(), &models.StripeWebhookEvent{
		EventID:        "evt_9",
		EventType:      EventCheckoutSessionCompleted,
		Classification: string(KindOneTimePayment),
		CustomerID:     "cus_1",
		ClaimedAt:      &stale,
	})
	require.NoError(t, err)

	out, err := f.r.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.Len(t, f.orders.audits, 1)
	assert.Len(t, f.bookings.bookings, 1)
	assert.True(t, f.ledger.rows["evt_9"].Succeeded())

	// the finished row now blocks any further delivery
	out, err = f.r.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, out.Duplicate)
	assert.Len(t, f.bookings.bookings, 1)
}

func TestHandle_AuditFailureIsReturned(t *testing.T) {
	f := newReconcilerFixture()
	f.orders.auditErr = errBoom

	_, err := f.r.Handle(context.Background(), billingtest.Event("evt_5", EventCheckoutSessionCompleted, consultationCheckout))
	assert.ErrorIs(t, err, ErrAuditInsertFailed)
	assert.Empty(t, f.bookings.bookings)
	assert.Zero(t, f.notifier.calls())
}

func TestHandle_PublisherFailureIsNotFatal(t *testing.T) {
	f := newReconcilerFixture()
	f.publisher.err = errBoom
	_, err := f.r.Handle(context.Background(), billingtest.Event("evt_6", "invoice.paid", `{"id":"in_1","customer":"cus_1"}`))
	assert.NoError(t, err)
}

func TestHandle_WithoutLedger(t *testing.T) {
	subs := &fakeSubscriptionRepo{}
	r := NewReconciler(NewSyncService(&billingtest.FakeGateway{}, subs), nil, nil, nil)
	ev := billingtest.Event("evt_7", "invoice.paid", `{"id":"in_1","customer":"cus_1"}`)

	for i := 0; i < 2; i++ {
		_, err := r.Handle(context.Background(), ev)
		require.NoError(t, err)
	}
	assert.Len(t, subs.notStarted, 2)
}
