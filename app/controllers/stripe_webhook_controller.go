package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v78"

	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
)

const stripeSignatureHeader = "Stripe-Signature"

// EventVerifier checks the Stripe-Signature header of a webhook delivery.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (stripe.Event, error)
}

// StripeWebhookController receives Stripe webhook deliveries and hands
// verified events to the job queue.
type StripeWebhookController struct {
	verifier   EventVerifier
	dispatcher jobqueue.Dispatcher
}

func NewStripeWebhookController(verifier EventVerifier, dispatcher jobqueue.Dispatcher) *StripeWebhookController {
	return &StripeWebhookController{verifier: verifier, dispatcher: dispatcher}
}

// HandleStripeWebhook acknowledges a verified event as soon as it is queued.
// Processing results are recorded in the event ledger and the job result.
func (wc *StripeWebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodOptions:
		return c.SendStatus(fiber.StatusNoContent)
	case fiber.MethodPost:
	default:
		return c.Status(fiber.StatusMethodNotAllowed).SendString("Method not allowed")
	}

	signature := c.Get(stripeSignatureHeader)
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).SendString("No signature found")
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	event, err := wc.verifier.Verify(rawBody, signature)
	if err != nil {
		log.Errorf("[StripeWebhook] Webhook signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).SendString("Webhook signature verification failed: " + err.Error())
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	job, err := jobqueue.DispatchStripeEvent(ctx, wc.dispatcher, event, rawBody)
	if err != nil {
		log.Errorf("[StripeWebhook] Failed to queue event %s: %v", event.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	log.Infof("[StripeWebhook] Queued event %s (%s) as job %s", event.ID, event.Type, job.ID)
	return c.JSON(fiber.Map{"received": true})
}
