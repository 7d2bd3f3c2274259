package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// ServerInterface lists the operations of public/docs/v1/openapi.yml.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// (GET /subscriptions/{customerId})
	GetSubscription(c *fiber.Ctx, customerId string) error
	// (GET /webhook-events/{eventId})
	GetWebhookEvent(c *fiber.Ctx, eventId string) error
	// (GET /jobs/{id})
	GetJob(c *fiber.Ctx, id string) error
	// (GET /queue/stats)
	GetQueueStats(c *fiber.Ctx) error
}

// ServerInterfaceWrapper extracts path parameters before calling the server.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetPing(c *fiber.Ctx) error {
	return w.Handler.GetPing(c)
}

func (w *ServerInterfaceWrapper) GetSubscription(c *fiber.Ctx) error {
	return w.Handler.GetSubscription(c, c.Params("customerId"))
}

func (w *ServerInterfaceWrapper) GetWebhookEvent(c *fiber.Ctx) error {
	return w.Handler.GetWebhookEvent(c, c.Params("eventId"))
}

func (w *ServerInterfaceWrapper) GetJob(c *fiber.Ctx) error {
	return w.Handler.GetJob(c, c.Params("id"))
}

func (w *ServerInterfaceWrapper) GetQueueStats(c *fiber.Ctx) error {
	return w.Handler.GetQueueStats(c)
}

// RegisterHandlers mounts the API on router. Every operation except ping is
// guarded by the given middlewares.
func RegisterHandlers(router fiber.Router, si ServerInterface, guards ...fiber.Handler) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.Get("/ping", wrapper.GetPing)

	protected := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), h)
	}
	router.Get("/subscriptions/:customerId", protected(wrapper.GetSubscription)...)
	router.Get("/webhook-events/:eventId", protected(wrapper.GetWebhookEvent)...)
	router.Get("/jobs/:id", protected(wrapper.GetJob)...)
	router.Get("/queue/stats", protected(wrapper.GetQueueStats)...)
}
