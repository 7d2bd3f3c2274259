package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/billing"
	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
	"github.com/ManuelReschke/PayFox/internal/pkg/config"
	"github.com/ManuelReschke/PayFox/internal/pkg/database"
	"github.com/ManuelReschke/PayFox/internal/pkg/downloads"
	"github.com/ManuelReschke/PayFox/internal/pkg/env"
	"github.com/ManuelReschke/PayFox/internal/pkg/events"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PayFox/internal/pkg/mail"
	"github.com/ManuelReschke/PayFox/internal/pkg/middleware"
	"github.com/ManuelReschke/PayFox/internal/pkg/notifier"
	"github.com/ManuelReschke/PayFox/internal/pkg/router"
)

// Application bundles the HTTP app with the resources that must be released
// on shutdown.
type Application struct {
	*fiber.App

	jobs      *jobqueue.Manager
	publisher events.Publisher
}

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			log.Errorf("HTTP server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	app.Shutdown()
}

func NewApplication(cfg *config.Config) (*Application, error) {
	db, err := database.SetupDatabase(cfg.Database, cfg.IsDev())
	if err != nil {
		return nil, err
	}
	redisClient := cache.SetupCache(cfg.Cache)
	repos := repository.NewFactory(db).GetRepositories()

	// STRIPE
	gateway, err := billing.NewStripeGateway(cfg.Stripe.SecretKey)
	if err != nil {
		return nil, err
	}
	publisher, err := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	reconciler := billing.NewReconciler(
		billing.NewSyncService(gateway, repos.Subscription),
		billing.NewPaymentProcessor(repos.Order, repos.Consultation, notifier.NewClient(cfg.FunctionsBaseURL, cfg.Supabase.AnonKey)),
		repos.WebhookEvent,
		publisher,
	)

	// JOB QUEUE
	jobs, err := jobqueue.NewManager(cfg.Queue.Backend, redisClient, cfg.Queue.Workers)
	if err != nil {
		return nil, err
	}
	jobs.Register(jobqueue.JobTypeStripeEvent, jobqueue.StripeEventMaxRetries, jobqueue.StripeEventHandler(reconciler))
	jobs.Start()

	// MAIL + DOWNLOADS
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, err
	}
	mailer := mail.NewMailer(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Sender:   cfg.SMTP.Sender,
	})
	links, err := downloads.NewLinkSigner(context.Background(), downloads.Config{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		EndpointURL:     cfg.S3.EndpointURL,
		LinkTTL:         cfg.S3.LinkTTL,
	})
	if err != nil {
		return nil, err
	}

	// the local backend runs without Redis, so counters stay in memory
	var rateLimitStorage fiber.Storage
	if jobs.Backend() == jobqueue.BackendRedis {
		rateLimitStorage = middleware.NewRateLimitStorage(cfg.Cache)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "PayFox",
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Repos:    repos,
		Queue:    jobs.Queue(),
		Verifier: billing.NewSignatureVerifier(cfg.Stripe.WebhookSecret, 0),
		Checkout: billing.NewCheckoutService(gateway, repos.Consultation, cfg.SiteOrigin),
		Renderer: renderer,
		Mailer:   mailer,
		Links:    links,
		Auth: middleware.ServiceAuthConfig{
			JWTSecret:      cfg.Supabase.JWTSecret,
			AnonKey:        cfg.Supabase.AnonKey,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		},
		RateLimitMax:     cfg.RateLimitMax,
		RateLimitStorage: rateLimitStorage,
	})

	return &Application{App: app, jobs: jobs, publisher: publisher}, nil
}

// Shutdown drains HTTP first so no new events are dispatched, then stops the
// workers and flushes the event publisher.
func (a *Application) Shutdown() {
	if err := a.App.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("HTTP shutdown: %v", err)
	}
	a.jobs.Stop()
	if err := a.publisher.Close(); err != nil {
		log.Errorf("Event publisher close: %v", err)
	}
}
