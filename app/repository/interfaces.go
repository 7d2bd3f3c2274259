package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PayFox/app/models"
)

// ErrNotFound is returned when a looked up record does not exist.
var ErrNotFound = errors.New("record not found")

// SubscriptionRepository stores the per-customer subscription mirror.
type SubscriptionRepository interface {
	UpsertNotStarted(ctx context.Context, customerID string) error
	Upsert(ctx context.Context, sub *models.StripeSubscription, updatePaymentMethod bool) error
	GetByCustomerID(ctx context.Context, customerID string) (*models.StripeSubscription, error)
}

// OrderRepository stores payment audit rows and product orders.
type OrderRepository interface {
	CreateStripeOrder(ctx context.Context, order *models.StripeOrder) error
	CreateProductOrder(ctx context.Context, order *models.Order, productID string) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

// NewBooking carries the values needed to create a consultation booking.
type NewBooking struct {
	ServiceID       string
	CustomerName    string
	CustomerEmail   string
	ScheduledDate   time.Time
	Message         string
	PaymentIntentID string
	PaymentAmount   decimal.Decimal
}

// ConsultationRepository defines consulting service and booking operations.
type ConsultationRepository interface {
	FindServiceByServiceID(ctx context.Context, serviceID string) (*models.ConsultingService, error)
	CreateBooking(ctx context.Context, in NewBooking) (string, error)
	GetBookingWithService(ctx context.Context, bookingID string) (*models.ConsultationBooking, error)
	MarkConfirmationSent(ctx context.Context, bookingID string) error
}

// ProductAccessRepository resolves products granted to a customer.
type ProductAccessRepository interface {
	ListBonusProducts(ctx context.Context, email, orderID string) ([]models.CustomerProductAccess, error)
}

// WebhookEventRepository persists the Stripe event processing ledger.
type WebhookEventRepository interface {
	CreateIfNotExists(ctx context.Context, event *models.StripeWebhookEvent) (bool, *models.StripeWebhookEvent, error)
	// Claim takes over an existing row that failed or whose claim is older
	// than lease. It reports false while another worker holds a live claim
	// or the row already succeeded.
	Claim(ctx context.Context, id uint, lease time.Duration) (bool, error)
	MarkProcessed(ctx context.Context, id uint, processingError string) error
	GetByEventID(ctx context.Context, eventID string) (*models.StripeWebhookEvent, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Subscription  SubscriptionRepository
	Order         OrderRepository
	Consultation  ConsultationRepository
	ProductAccess ProductAccessRepository
	WebhookEvent  WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Subscription:  NewSubscriptionRepository(db),
		Order:         NewOrderRepository(db),
		Consultation:  NewConsultationRepository(db),
		ProductAccess: NewProductAccessRepository(db),
		WebhookEvent:  NewWebhookEventRepository(db),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
