package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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
)

const serviceName = "sweeper-service"

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

	caseRepo := postgres.NewPgCaseRepository(dbPool, log)
	queueRepo := postgres.NewPgQueuedLookupRepository(dbPool, log)

	render := app.NewMessageRenderer(cfg.CourtPublicURL, cfg.QueueTTLDays)
	matcher := app.NewMatcher(caseRepo, log)
	notifier := notify.NewNATSNotifier(natsClient, log)
	sweeper := app.NewSweeper(queueRepo, matcher, notifier, render, log, app.SweeperConfig{
		Interval:          cfg.SweepInterval,
		BatchSize:         cfg.SweepBatchSize,
		SendExpiryNotices: cfg.SendExpiryNotices,
	})

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		// One immediate pass on startup, then the ticker takes over.
		if processed, err := sweeper.SweepOnce(groupCtx); err != nil {
			log.Error("Initial sweep cycle failed", "error", err)
		} else if processed > 0 {
			log.Info("Initial sweep cycle complete", "processed", processed)
		}
		return sweeper.Run(groupCtx)
	})

	log.Info("Service components initialized. Service is ready.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Service shutdown complete.")
}
