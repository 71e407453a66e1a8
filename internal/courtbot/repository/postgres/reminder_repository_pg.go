package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// PgReminderRepository is the PostgreSQL implementation of ReminderRepository.
// Rows are consumed by the external day-before notifier.
type PgReminderRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgReminderRepository creates a new PostgreSQL implementation of ReminderRepository.
func NewPgReminderRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgReminderRepository {
	return &PgReminderRepository{db: dbPool, logger: logger}
}

// Create inserts a reminder subscription with its case snapshot.
func (r *PgReminderRepository) Create(ctx context.Context, sub *domain.ReminderSubscription) error {
	query := `
		INSERT INTO reminder_subscriptions (
			id, phone_number, citation, defendant, case_date, case_time, room, court_type, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.PhoneNumber,
		sub.Citation,
		sub.Defendant,
		sub.CaseDate,
		sub.CaseTime,
		sub.Room,
		sub.CourtType,
		sub.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting reminder subscription", "error", err, "phone_number", sub.PhoneNumber, "citation", sub.Citation)
		return fmt.Errorf("insert reminder subscription: %w", err)
	}

	r.logger.InfoContext(ctx, "Reminder subscription created", "id", sub.ID, "phone_number", sub.PhoneNumber, "citation", sub.Citation)
	return nil
}
