package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/app/controllers"
	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/downloads"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PayFox/internal/pkg/mail"
	"github.com/ManuelReschke/PayFox/internal/pkg/middleware"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Repos    *repository.Repositories
	Queue    jobqueue.Dispatcher
	Verifier controllers.EventVerifier
	Checkout controllers.CheckoutCreator
	Renderer *mail.Renderer
	Mailer   mail.Mailer
	Links    downloads.LinkSigner
	Auth     middleware.ServiceAuthConfig

	// RateLimitMax requests per minute and IP on the checkout endpoint.
	RateLimitMax int
	// RateLimitStorage is nil for in-memory counters.
	RateLimitStorage fiber.Storage
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
