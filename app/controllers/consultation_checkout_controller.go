package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/internal/pkg/billing"
)

const serviceNotFoundMessage = "Service not found. Please ensure services are configured in the database."

// CheckoutCreator opens checkout sessions for consulting services.
type CheckoutCreator interface {
	CreateConsultationCheckout(ctx context.Context, req billing.ConsultationCheckoutRequest) (*stripe.CheckoutSession, error)
}

// ConsultationCheckoutController starts the payment for a consultation
// booking. The price always comes from the stored service.
type ConsultationCheckoutController struct {
	checkout CheckoutCreator
}

func NewConsultationCheckoutController(checkout CheckoutCreator) *ConsultationCheckoutController {
	return &ConsultationCheckoutController{checkout: checkout}
}

func (cc *ConsultationCheckoutController) HandleCreateConsultationCheckout(c *fiber.Ctx) error {
	if handled, err := handlePreflight(c); handled {
		return err
	}

	var req ConsultationCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		log.Warnf("[ConsultationCheckout] Missing required fields: serviceId=%q customerName=%q customerEmail=%q scheduledDate=%q",
			req.ServiceID, req.CustomerName, req.CustomerEmail, req.ScheduledDate)
		return jsonError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 20*time.Second)
	defer cancel()

	session, err := cc.checkout.CreateConsultationCheckout(ctx, billing.ConsultationCheckoutRequest{
		ServiceID:     req.ServiceID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ScheduledDate: req.ScheduledDate,
		Message:       req.Message,
		Origin:        c.Get(fiber.HeaderOrigin),
	})
	switch {
	case errors.Is(err, billing.ErrServiceNotFound):
		log.Warnf("[ConsultationCheckout] Service not found in database for ID: %s", req.ServiceID)
		return jsonError(c, fiber.StatusNotFound, serviceNotFoundMessage)
	case errors.Is(err, billing.ErrServiceLookup):
		log.Errorf("[ConsultationCheckout] Database error fetching service: %v", err)
		cause := strings.TrimPrefix(err.Error(), billing.ErrServiceLookup.Error()+": ")
		return jsonError(c, fiber.StatusInternalServerError, "Service lookup failed: "+cause)
	case err != nil:
		log.Errorf("[ConsultationCheckout] Error creating consultation checkout: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	log.Infof("[ConsultationCheckout] Checkout session created successfully: %s", session.ID)
	return c.JSON(fiber.Map{"sessionId": session.ID, "url": session.URL})
}
