package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/events"
)

type fakeSubscriptionRepo struct {
	notStarted []string
	upserts    []*models.StripeSubscription
	pmUpdates  []bool
	err        error
}

func (r *fakeSubscriptionRepo) UpsertNotStarted(_ context.Context, customerID string) error {
	if r.err != nil {
		return r.err
	}
	r.notStarted = append(r.notStarted, customerID)
	return nil
}

func (r *fakeSubscriptionRepo) Upsert(_ context.Context, sub *models.StripeSubscription, updatePaymentMethod bool) error {
	if r.err != nil {
		return r.err
	}
	r.upserts = append(r.upserts, sub)
	r.pmUpdates = append(r.pmUpdates, updatePaymentMethod)
	return nil
}

func (r *fakeSubscriptionRepo) GetByCustomerID(context.Context, string) (*models.StripeSubscription, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeSubscriptionRepo) writes() int {
	return len(r.notStarted) + len(r.upserts)
}

type fakeOrderRepo struct {
	auditErr   error
	orderErr   error
	audits     []*models.StripeOrder
	orders     []*models.Order
	productIDs []string
}

func (r *fakeOrderRepo) CreateStripeOrder(_ context.Context, order *models.StripeOrder) error {
	if r.auditErr != nil {
		return r.auditErr
	}
	order.ID = uint(len(r.audits) + 1)
	r.audits = append(r.audits, order)
	return nil
}

func (r *fakeOrderRepo) CreateProductOrder(_ context.Context, order *models.Order, productID string) error {
	if r.orderErr != nil {
		return r.orderErr
	}
	order.ID = "order-1"
	r.orders = append(r.orders, order)
	r.productIDs = append(r.productIDs, productID)
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(context.Context, string) (*models.Order, error) {
	return nil, repository.ErrNotFound
}

type fakeConsultationRepo struct {
	services   map[string]*models.ConsultingService
	lookupErr  error
	bookingErr error
	bookings   []repository.NewBooking
}

func (r *fakeConsultationRepo) FindServiceByServiceID(_ context.Context, serviceID string) (*models.ConsultingService, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	if s, ok := r.services[serviceID]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeConsultationRepo) CreateBooking(_ context.Context, in repository.NewBooking) (string, error) {
	if r.bookingErr != nil {
		return "", r.bookingErr
	}
	r.bookings = append(r.bookings, in)
	return "booking-1", nil
}

func (r *fakeConsultationRepo) GetBookingWithService(context.Context, string) (*models.ConsultationBooking, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeConsultationRepo) MarkConfirmationSent(context.Context, string) error {
	return nil
}

type bonusCall struct {
	email, customerName, orderID string
}

type fakeNotifier struct {
	err        error
	bookingIDs []string
	bonus      []bonusCall
}

func (n *fakeNotifier) SendBookingConfirmation(_ context.Context, bookingID string) error {
	n.bookingIDs = append(n.bookingIDs, bookingID)
	return n.err
}

func (n *fakeNotifier) SendBonusEmail(_ context.Context, email, customerName, orderID string) error {
	n.bonus = append(n.bonus, bonusCall{email, customerName, orderID})
	return n.err
}

func (n *fakeNotifier) calls() int {
	return len(n.bookingIDs) + len(n.bonus)
}

type fakeLedger struct {
	mu     sync.Mutex
	rows   map[string]*models.StripeWebhookEvent
	nextID uint
	err    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[string]*models.StripeWebhookEvent{}}
}

func (l *fakeLedger) CreateIfNotExists(_ context.Context, event *models.StripeWebhookEvent) (bool, *models.StripeWebhookEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, nil, l.err
	}
	if existing, ok := l.rows[event.EventID]; ok {
		return false, existing, nil
	}
	l.nextID++
	event.ID = l.nextID
	if event.ClaimedAt == nil {
		now := time.Now()
		event.ClaimedAt = &now
	}
	l.rows[event.EventID] = event
	return true, event, nil
}

func (l *fakeLedger) Claim(_ context.Context, id uint, lease time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for _, row := range l.rows {
		if row.ID != id {
			continue
		}
		stale := row.ProcessedAt == nil && (row.ClaimedAt == nil || row.ClaimedAt.Before(now.Add(-lease)))
		if !row.Failed() && !stale {
			return false, nil
		}
		row.ClaimedAt = &now
		row.ProcessedAt = nil
		row.ProcessingError = ""
		return true, nil
	}
	return false, repository.ErrNotFound
}

func (l *fakeLedger) MarkProcessed(_ context.Context, id uint, processingError string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, row := range l.rows {
		if row.ID == id {
			now := time.Now()
			row.ProcessedAt = &now
			row.ProcessingError = processingError
			return nil
		}
	}
	return repository.ErrNotFound
}

func (l *fakeLedger) GetByEventID(_ context.Context, eventID string) (*models.StripeWebhookEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row, ok := l.rows[eventID]; ok {
		return row, nil
	}
	return nil, repository.ErrNotFound
}

type fakePublisher struct {
	envelopes []events.Envelope
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, e events.Envelope) error {
	p.envelopes = append(p.envelopes, e)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

var errBoom = errors.New("boom")
