package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/middleware"
)

func (h HttpRouter) registerFunctionRoutes(app *fiber.App) {
	auth := middleware.ServiceAuth(h.deps.Auth)

	limit := h.deps.RateLimitMax
	if limit <= 0 {
		limit = 20
	}
	checkoutLimiter := middleware.RateLimit("checkout", limit, time.Minute, h.deps.RateLimitStorage)

	app.All("/create-consultation-checkout", checkoutLimiter, auth, h.checkout.HandleCreateConsultationCheckout)
	app.All("/send-bonus-email", auth, h.bonusEmail.HandleSendBonusEmail)
	app.All("/send-booking-confirmation", auth, h.confirmation.HandleSendBookingConfirmation)
}
