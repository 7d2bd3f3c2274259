package router

import (
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Stripe webhook (no auth, signature-verified in controller)
	app.All("/stripe-webhook", h.webhook.HandleStripeWebhook)
}
