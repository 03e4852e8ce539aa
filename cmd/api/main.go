package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/config"
	authhandler "github.com/fieldserve/booking-api/internal/handler/auth"
	bookinghandler "github.com/fieldserve/booking-api/internal/handler/booking"
	cataloghandler "github.com/fieldserve/booking-api/internal/handler/catalog"
	employeehandler "github.com/fieldserve/booking-api/internal/handler/employee"
	jobhandler "github.com/fieldserve/booking-api/internal/handler/job"
	paymenthandler "github.com/fieldserve/booking-api/internal/handler/payment"
	webhookhandler "github.com/fieldserve/booking-api/internal/handler/webhook"
	"github.com/fieldserve/booking-api/internal/email"
	"github.com/fieldserve/booking-api/internal/middleware"
	"github.com/fieldserve/booking-api/internal/repository/postgres"
	"github.com/fieldserve/booking-api/internal/router"
	"github.com/fieldserve/booking-api/internal/service/assignment"
	"github.com/fieldserve/booking-api/internal/service/auth"
	"github.com/fieldserve/booking-api/internal/service/booking"
	"github.com/fieldserve/booking-api/internal/service/catalog"
	"github.com/fieldserve/booking-api/internal/service/directory"
	"github.com/fieldserve/booking-api/internal/service/event"
	"github.com/fieldserve/booking-api/internal/service/payment"
	"github.com/fieldserve/booking-api/pkg/logger"
	"github.com/fieldserve/booking-api/pkg/messaging"
	redisbroker "github.com/fieldserve/booking-api/pkg/messaging/redis"
	"github.com/fieldserve/booking-api/pkg/metrics"
	"github.com/fieldserve/booking-api/pkg/validator"
	"github.com/fieldserve/booking-api/pkg/worker"
)

func main() {
	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})
	log.Logger = *appLogger.Zerolog()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := validator.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()
	}

	m := metrics.NewMetrics("booking_api", "core")

	// Repositories
	profileRepo := postgres.NewProfileRepository(db)
	employeeRepo := postgres.NewEmployeeRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	emailSvc := email.NewSMTPSender(cfg.SMTP)
	eventSvc := event.NewService(outboxRepo)
	authSvc := auth.NewService(profileRepo, cfg.Auth)
	directorySvc := directory.NewService(employeeRepo, profileRepo, m)
	assignmentSvc := assignment.NewService(assignmentRepo, bookingRepo, directorySvc, eventSvc, emailSvc, m)
	bookingSvc := booking.NewService(bookingRepo, serviceRepo, eventSvc, emailSvc)
	catalogSvc := catalog.NewService(serviceRepo)
	stripeProvider := payment.NewStripeProvider(cfg.Stripe.SecretKey)
	paymentSvc := payment.NewService(paymentRepo, bookingRepo, stripeProvider, eventSvc, m, cfg.Stripe.DefaultCurrency)

	// HTTP layer
	authMW := middleware.NewAuthMiddleware(authSvc)
	r := router.NewRouter(
		authMW,
		authhandler.NewHandler(authSvc, authMW),
		webhookhandler.NewHandler(paymentSvc, cfg.Stripe.WebhookSecret, m),
		bookinghandler.NewHandler(bookingSvc, assignmentSvc),
		employeehandler.NewHandler(directorySvc),
		jobhandler.NewHandler(assignmentSvc),
		paymenthandler.NewHandler(paymentSvc),
		cataloghandler.NewHandler(catalogSvc),
		db,
		cfg,
	)
	r.Setup()

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if broker != nil {
		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.Outbox.PollInterval,
		}, m)
		go processor.Start(ctx)
	} else {
		log.Warn().Msg("redis not configured, outbox events will not be published")
	}
	go worker.NewOutboxCleanupWorker(outboxRepo, 7, time.Hour).Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
