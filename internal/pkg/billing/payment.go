package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
)

const (
	checkoutTypeConsultation = "consultation"

	defaultBookingCustomerName = "Customer"
	defaultBonusCustomerName   = "Valued Customer"
)

// ErrAuditInsertFailed aborts the one-time payment path before any booking,
// order or notification is attempted.
var ErrAuditInsertFailed = errors.New("failed to record payment audit row")

// Notifier triggers the customer facing emails after a payment.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, bookingID string) error
	SendBonusEmail(ctx context.Context, email, customerName, orderID string) error
}

// PaymentProcessor handles paid one-time checkout sessions.
type PaymentProcessor struct {
	orders   repository.OrderRepository
	bookings repository.ConsultationRepository
	notifier Notifier
}

func NewPaymentProcessor(orders repository.OrderRepository, bookings repository.ConsultationRepository, notifier Notifier) *PaymentProcessor {
	return &PaymentProcessor{orders: orders, bookings: bookings, notifier: notifier}
}

// Process records the audit row and then either books a consultation or
// creates a product order. Only the audit insert is fatal; later failures
// are logged and reported as warnings on the result.
func (p *PaymentProcessor) Process(ctx context.Context, customerID string, session *stripe.CheckoutSession) (*PaymentResult, error) {
	if session == nil {
		return nil, errors.New("checkout session is required")
	}
	result := &PaymentResult{CheckoutSessionID: session.ID}
	paymentIntentID := paymentIntentIDOf(session)

	audit := &models.StripeOrder{
		CheckoutSessionID: session.ID,
		PaymentIntentID:   paymentIntentID,
		CustomerID:        customerID,
		AmountSubtotal:    session.AmountSubtotal,
		AmountTotal:       session.AmountTotal,
		Currency:          string(session.Currency),
		PaymentStatus:     string(session.PaymentStatus),
		Status:            models.StripeOrderStatusCompleted,
	}
	if err := p.orders.CreateStripeOrder(ctx, audit); err != nil {
		log.Errorf("[Payment] Error inserting order for session %s: %v", session.ID, err)
		return result, fmt.Errorf("%w: %w", ErrAuditInsertFailed, err)
	}
	result.AuditOrderID = audit.ID

	email, name := customerDetails(session)
	if email == "" {
		log.Warnf("[Payment] No customer email on session %s, skipping fulfilment", session.ID)
		return result, nil
	}

	if session.Metadata[metaType] == checkoutTypeConsultation {
		p.bookConsultation(ctx, session, email, name, paymentIntentID, result)
	} else {
		p.recordProductOrder(ctx, session, email, name, paymentIntentID, result)
	}

	log.Infof("[Payment] Processed one-time payment for session: %s", session.ID)
	return result, nil
}

func (p *PaymentProcessor) bookConsultation(ctx context.Context, session *stripe.CheckoutSession, email, name, paymentIntentID string, result *PaymentResult) {
	meta := session.Metadata
	scheduled, err := models.ParseScheduledDate(meta[metaScheduledDate])
	if err != nil {
		log.Errorf("[Payment] Error creating consultation booking for session %s: %v", session.ID, err)
		result.warn("booking: " + err.Error())
		return
	}

	bookingID, err := p.bookings.CreateBooking(ctx, repository.NewBooking{
		ServiceID:       meta[metaServiceID],
		CustomerName:    firstNonEmpty(meta[metaCustomerName], name, defaultBookingCustomerName),
		CustomerEmail:   email,
		ScheduledDate:   scheduled,
		Message:         meta[metaMessage],
		PaymentIntentID: paymentIntentID,
		PaymentAmount:   FromMinorUnits(session.AmountTotal),
	})
	if err != nil {
		log.Errorf("[Payment] Error creating consultation booking for session %s: %v", session.ID, err)
		result.warn("booking: " + err.Error())
		return
	}
	result.BookingID = bookingID
	log.Infof("[Payment] Consultation booking %s created for session %s", bookingID, session.ID)

	if err := p.notifier.SendBookingConfirmation(ctx, bookingID); err != nil {
		log.Errorf("[Payment] Error sending booking confirmation for %s: %v", bookingID, err)
		result.warn("booking confirmation: " + err.Error())
		return
	}
	result.Notified = true
}

func (p *PaymentProcessor) recordProductOrder(ctx context.Context, session *stripe.CheckoutSession, email, name, paymentIntentID string, result *PaymentResult) {
	order := &models.Order{
		Email:           email,
		TotalAmount:     FromMinorUnits(session.AmountTotal),
		PaymentStatus:   models.PaymentStatusPaid,
		PaymentIntentID: paymentIntentID,
	}
	if err := p.orders.CreateProductOrder(ctx, order, session.Metadata[metaProductID]); err != nil {
		log.Errorf("[Payment] Error creating order for bonus system (session %s): %v", session.ID, err)
		result.warn("order: " + err.Error())
		return
	}
	result.OrderID = order.ID

	if err := p.notifier.SendBonusEmail(ctx, email, firstNonEmpty(name, defaultBonusCustomerName), order.ID); err != nil {
		log.Errorf("[Payment] Error sending bonus email for order %s: %v", order.ID, err)
		result.warn("bonus email: " + err.Error())
		return
	}
	result.Notified = true
}

// FromMinorUnits converts an amount in cents to a decimal major unit value.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// ToMinorUnits converts a major unit price to cents, rounding half away
// from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func paymentIntentIDOf(session *stripe.CheckoutSession) string {
	if session.PaymentIntent == nil {
		return ""
	}
	return session.PaymentIntent.ID
}

func customerDetails(session *stripe.CheckoutSession) (email, name string) {
	if session.CustomerDetails == nil {
		return "", ""
	}
	return strings.TrimSpace(session.CustomerDetails.Email), strings.TrimSpace(session.CustomerDetails.Name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
