package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
)

// Checkout session metadata keys, read back by the one-time payment path.
const (
	metaType          = "type"
	metaServiceID     = "serviceId"
	metaCustomerName  = "customerName"
	metaScheduledDate = "scheduledDate"
	metaMessage       = "message"
	metaProductID     = "productId"
)

const checkoutCurrency = "usd"

var (
	ErrServiceNotFound = errors.New("consulting service not found")
	ErrServiceLookup   = errors.New("service lookup failed")
)

// ConsultationCheckoutRequest is the validated input for a consultation
// checkout session.
type ConsultationCheckoutRequest struct {
	ServiceID     string
	CustomerName  string
	CustomerEmail string
	ScheduledDate string
	Message       string
	Origin        string
}

// CheckoutService creates hosted checkout sessions for consulting services.
type CheckoutService struct {
	gateway       Gateway
	services      repository.ConsultationRepository
	defaultOrigin string
}

func NewCheckoutService(gateway Gateway, services repository.ConsultationRepository, defaultOrigin string) *CheckoutService {
	return &CheckoutService{gateway: gateway, services: services, defaultOrigin: strings.TrimRight(defaultOrigin, "/")}
}

// CreateConsultationCheckout looks up the service and opens a payment mode
// checkout session for it. The processor is not called when the lookup fails.
func (s *CheckoutService) CreateConsultationCheckout(ctx context.Context, req ConsultationCheckoutRequest) (*stripe.CheckoutSession, error) {
	service, err := s.services.FindServiceByServiceID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrServiceLookup, err)
	}

	origin := strings.TrimRight(strings.TrimSpace(req.Origin), "/")
	if origin == "" {
		origin = s.defaultOrigin
	}

	return s.gateway.CreateCheckoutSession(ctx, ConsultationCheckoutParams(service, req, origin))
}

// ConsultationCheckoutParams builds the session parameters for a booking of
// the given service.
func ConsultationCheckoutParams(service *models.ConsultingService, req ConsultationCheckoutRequest, origin string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(checkoutCurrency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(service.Title),
						Description: stripe.String(fmt.Sprintf("%s - %s", service.Description, service.Duration)),
					},
					UnitAmount: stripe.Int64(ToMinorUnits(service.Price)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(origin + "/consultation-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(origin + "/consulting"),
		CustomerEmail: stripe.String(req.CustomerEmail),
	}
	params.AddMetadata(metaServiceID, req.ServiceID)
	params.AddMetadata(metaCustomerName, req.CustomerName)
	params.AddMetadata(metaScheduledDate, req.ScheduledDate)
	params.AddMetadata(metaMessage, req.Message)
	params.AddMetadata(metaType, checkoutTypeConsultation)
	return params
}
