package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	// Platform packages
	"github.com/opencourt/courtbot/internal/platform/config"
	"github.com/opencourt/courtbot/internal/platform/database"
	"github.com/opencourt/courtbot/internal/platform/logger"
	"github.com/opencourt/courtbot/internal/platform/messagebroker"

	// Courtbot packages
	"github.com/opencourt/courtbot/internal/courtbot/adapters/notify"
	"github.com/opencourt/courtbot/internal/courtbot/app"
	"github.com/opencourt/courtbot/internal/courtbot/repository/postgres"
	transport "github.com/opencourt/courtbot/internal/courtbot/transport/http"
)

const (
	serviceName     = "courtbot-service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting service...", "service", serviceName)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		log.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	log.Info("Database connection pool initialized")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, log)
	if err != nil {
		log.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	log.Info("NATS connection initialized")

	// Repositories
	caseRepo := postgres.NewPgCaseRepository(dbPool, log)
	conversationRepo := postgres.NewPgConversationRepository(dbPool, log)
	queueRepo := postgres.NewPgQueuedLookupRepository(dbPool, log)
	reminderRepo := postgres.NewPgReminderRepository(dbPool, log)

	// Application components
	render := app.NewMessageRenderer(cfg.CourtPublicURL, cfg.QueueTTLDays)
	matcher := app.NewMatcher(caseRepo, log)
	notifier := notify.NewNATSNotifier(natsClient, log)
	dialogue := app.NewDialogueController(matcher, conversationRepo, queueRepo, reminderRepo, notifier, render, log,
		app.DialogueConfig{
			QueueTTLDays: cfg.QueueTTLDays,
			StoreTimeout: cfg.StoreTimeout,
		})

	// HTTP transport
	validate := validator.New()
	incomingHandler := transport.NewIncomingHandler(dialogue, log, validate)
	caseHandler := transport.NewCaseHandler(caseRepo, log)
	authMiddleware := transport.NewAuthMiddleware(cfg.JWTAccessSecret, log)
	adminHandler := transport.NewAdminHandler(queueRepo, transport.AdminConfig{
		PasswordHash:     cfg.AdminPasswordHash,
		JWTSecret:        cfg.JWTAccessSecret,
		TokenExpiryHours: cfg.JWTAccessExpiryHours,
	}, log, validate)

	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	r.Use(chi_middleware.RealIP)
	r.Use(chi_middleware.Recoverer)
	r.Use(transport.PrometheusMetricsMiddleware)

	incomingHandler.RegisterRoutes(r)
	caseHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r, authMiddleware)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		log.Info("Starting HTTP server...", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		log.Info("Initiating HTTP server graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Info("Service components initialized. Service is ready.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Service shutdown complete.")
}
