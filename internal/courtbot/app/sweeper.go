package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opencourt/courtbot/internal/courtbot/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// SweeperConfig holds configuration specific to the Sweeper.
type SweeperConfig struct {
	Interval          time.Duration `mapstructure:"SWEEP_INTERVAL"`
	BatchSize         int           `mapstructure:"SWEEP_BATCH_SIZE"`
	SendExpiryNotices bool          `mapstructure:"SEND_EXPIRY_NOTICES"`
}

// Sweeper is the queue expiry sweep: once per interval it re-checks every
// unresolved queued lookup against the case store, notifies when a match has
// appeared, and retires entries whose TTL elapsed. It never touches live
// conversation state.
type Sweeper struct {
	queue    domain.QueuedLookupRepository
	matcher  *Matcher
	notifier Notifier
	render   *MessageRenderer
	logger   *slog.Logger
	config   SweeperConfig

	now func() time.Time // injectable for tests
}

// NewSweeper creates a new Sweeper instance.
func NewSweeper(
	queue domain.QueuedLookupRepository,
	matcher *Matcher,
	notifier Notifier,
	render *MessageRenderer,
	logger *slog.Logger,
	config SweeperConfig,
) *Sweeper {
	return &Sweeper{
		queue:    queue,
		matcher:  matcher,
		notifier: notifier,
		render:   render,
		logger:   logger,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SweepOnce runs one sweep cycle. Each entry's outcome is independent: a
// delivery or store failure for one entry is logged, left unresolved for the
// next cycle, and never aborts the rest of the batch. The returned error is
// reserved for failures that prevent the sweep from running at all.
func (s *Sweeper) SweepOnce(ctx context.Context) (processed int, err error) {
	timer := prometheus.NewTimer(sweepDurationHist)
	defer timer.ObserveDuration()

	entries, err := s.queue.ListUnresolved(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list unresolved queued lookups", "error", err)
		return 0, fmt.Errorf("list unresolved queued lookups: %w", err)
	}
	if len(entries) == 0 {
		s.logger.InfoContext(ctx, "No unresolved queued lookups in this sweep cycle")
		return 0, nil
	}

	s.logger.InfoContext(ctx, "Sweeping queued lookups", "count", len(entries))

	now := s.now()
	for _, entry := range entries {
		processed++
		s.sweepEntry(ctx, entry, now)
	}
	return processed, nil
}

func (s *Sweeper) sweepEntry(ctx context.Context, entry *domain.QueuedLookup, now time.Time) {
	result, err := s.matcher.Match(ctx, entry.Citation)
	if err != nil {
		s.logger.ErrorContext(ctx, "Sweep lookup failed, will retry next cycle",
			"lookup_id", entry.ID, "citation", entry.Citation, "error", err)
		sweepEntriesCounter.WithLabelValues("error").Inc()
		return
	}

	switch {
	case result.Outcome == MatchUnique:
		if err := s.notifier.Send(ctx, entry.PhoneNumber, s.render.QueueMatchFound(result.Case)); err != nil {
			// Leave unresolved so the next cycle retries the notification.
			s.logger.ErrorContext(ctx, "Failed to deliver found notification",
				"lookup_id", entry.ID, "phone_number", entry.PhoneNumber, "error", err)
			sweepEntriesCounter.WithLabelValues("error").Inc()
			return
		}
		s.resolve(ctx, entry, "matched")

	case entry.Expired(now):
		if s.config.SendExpiryNotices {
			if err := s.notifier.Send(ctx, entry.PhoneNumber, s.render.QueueExpired(entry.Citation)); err != nil {
				s.logger.ErrorContext(ctx, "Failed to deliver expiry notice",
					"lookup_id", entry.ID, "phone_number", entry.PhoneNumber, "error", err)
				sweepEntriesCounter.WithLabelValues("error").Inc()
				return
			}
		}
		s.resolve(ctx, entry, "expired")

	default:
		// Not found yet and not expired: untouched until the next sweep.
		sweepEntriesCounter.WithLabelValues("pending").Inc()
	}
}

// resolve conditionally retires the entry. Resolve only succeeds on rows
// still unresolved, so a sweep and an inbound turn racing on the same row
// cannot both resolve it.
func (s *Sweeper) resolve(ctx context.Context, entry *domain.QueuedLookup, outcome string) {
	resolved, err := s.queue.Resolve(ctx, entry.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to resolve queued lookup",
			"lookup_id", entry.ID, "outcome", outcome, "error", err)
		sweepEntriesCounter.WithLabelValues("error").Inc()
		return
	}
	if !resolved {
		s.logger.WarnContext(ctx, "Queued lookup already resolved elsewhere", "lookup_id", entry.ID)
		return
	}
	s.logger.InfoContext(ctx, "Queued lookup resolved",
		"lookup_id", entry.ID, "phone_number", entry.PhoneNumber, "citation", entry.Citation, "outcome", outcome)
	sweepEntriesCounter.WithLabelValues(outcome).Inc()
}

// Run ticks SweepOnce until ctx is cancelled. A failed cycle is logged and
// retried on the next tick; only context cancellation ends the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting queue expiry sweep", "interval", s.config.Interval, "batch_size", s.config.BatchSize)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			processed, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "Sweep cycle failed", "error", err)
				continue
			}
			if processed > 0 {
				s.logger.InfoContext(ctx, "Sweep cycle complete", "processed", processed)
			}
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Queue expiry sweep stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}
