package router

import (
	apiv1 "github.com/ManuelReschke/PayFox/internal/api/v1"
	"github.com/ManuelReschke/PayFox/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer(h.deps.Repos.Subscription, h.deps.Repos.WebhookEvent, h.deps.Queue)

	serviceOnly := h.deps.Auth
	serviceOnly.ServiceRoleOnly = true
	apiv1.RegisterHandlers(v1, apiServer, middleware.ServiceAuth(serviceOnly))
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
