package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/controllers"
)

// HttpRouter serves the webhook and the function endpoints.
type HttpRouter struct {
	deps Dependencies

	webhook      *controllers.StripeWebhookController
	checkout     *controllers.ConsultationCheckoutController
	bonusEmail   *controllers.BonusEmailController
	confirmation *controllers.BookingConfirmationController
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	h.registerPublicRoutes(app)
	h.registerFunctionRoutes(app)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{
		deps:         deps,
		webhook:      controllers.NewStripeWebhookController(deps.Verifier, deps.Queue),
		checkout:     controllers.NewConsultationCheckoutController(deps.Checkout),
		bonusEmail:   controllers.NewBonusEmailController(deps.Repos.ProductAccess, deps.Renderer, deps.Mailer, deps.Links),
		confirmation: controllers.NewBookingConfirmationController(deps.Repos.Consultation, deps.Renderer, deps.Mailer),
	}
}
