package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
)

// APIServer implements the ServerInterface
type APIServer struct {
	subscriptions repository.SubscriptionRepository
	events        repository.WebhookEventRepository
	jobs          jobqueue.Dispatcher
}

// NewAPIServer creates a new API server instance
func NewAPIServer(subscriptions repository.SubscriptionRepository, events repository.WebhookEventRepository, jobs jobqueue.Dispatcher) *APIServer {
	return &APIServer{subscriptions: subscriptions, events: events, jobs: jobs}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetSubscription returns the mirrored subscription state of a customer.
func (s *APIServer) GetSubscription(c *fiber.Ctx, customerId string) error {
	if customerId == "" {
		return badRequest(c, "customerId missing")
	}
	sub, err := s.subscriptions.GetByCustomerID(c.UserContext(), customerId)
	if err != nil {
		return lookupError(c, "subscription", err)
	}
	return c.JSON(sub)
}

// GetWebhookEvent returns the ledger entry of a Stripe event.
func (s *APIServer) GetWebhookEvent(c *fiber.Ctx, eventId string) error {
	if eventId == "" {
		return badRequest(c, "eventId missing")
	}
	event, err := s.events.GetByEventID(c.UserContext(), eventId)
	if err != nil {
		return lookupError(c, "webhook event", err)
	}
	return c.JSON(event)
}

// GetJob returns a background job including its result. Finished jobs
// expire after jobqueue.FinishedJobTTL.
func (s *APIServer) GetJob(c *fiber.Ctx, id string) error {
	if id == "" {
		return badRequest(c, "id missing")
	}
	job, err := s.jobs.GetJob(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, jobqueue.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(Error{Error: "not_found", Message: "job not found"})
		}
		return lookupError(c, "job", err)
	}
	return c.JSON(job)
}

// GetQueueStats returns queue depth and job counters.
func (s *APIServer) GetQueueStats(c *fiber.Ctx) error {
	stats, err := s.jobs.Stats(c.UserContext())
	if err != nil {
		log.Errorf("[API] Failed to read queue stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(Error{Error: "internal_server_error", Message: "queue stats unavailable"})
	}
	return c.JSON(stats)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Error{Error: "bad_request", Message: msg})
}

func lookupError(c *fiber.Ctx, what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(Error{Error: "not_found", Message: what + " not found"})
	}
	log.Errorf("[API] Failed to load %s: %v", what, err)
	return c.Status(fiber.StatusInternalServerError).JSON(Error{Error: "internal_server_error", Message: "failed to load " + what})
}
