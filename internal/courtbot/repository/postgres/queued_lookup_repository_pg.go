package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// PgQueuedLookupRepository is the PostgreSQL implementation of
// QueuedLookupRepository. A partial unique index on (phone_number, citation)
// over unresolved rows backs idempotent creation.
type PgQueuedLookupRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgQueuedLookupRepository creates a new PostgreSQL implementation of QueuedLookupRepository.
func NewPgQueuedLookupRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgQueuedLookupRepository {
	return &PgQueuedLookupRepository{db: dbPool, logger: logger}
}

const queuedLookupColumns = `id, citation, phone_number, created_at, expires_at, resolved_at`

// Create inserts the entry; re-creating an existing unresolved
// (phone, citation) pair is a no-op.
func (r *PgQueuedLookupRepository) Create(ctx context.Context, lookup *domain.QueuedLookup) error {
	query := `
		INSERT INTO queued_lookups (id, citation, phone_number, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number, citation) WHERE resolved_at IS NULL DO NOTHING
	`

	ct, err := r.db.Exec(ctx, query, lookup.ID, lookup.Citation, lookup.PhoneNumber, lookup.CreatedAt, lookup.ExpiresAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting queued lookup", "error", err, "phone_number", lookup.PhoneNumber, "citation", lookup.Citation)
		return fmt.Errorf("insert queued lookup: %w", err)
	}
	if ct.RowsAffected() == 0 {
		r.logger.InfoContext(ctx, "Queued lookup already exists, insert skipped", "phone_number", lookup.PhoneNumber, "citation", lookup.Citation)
	}
	return nil
}

// FindUnresolvedByPhone returns the sender's most recent unresolved entry, or
// domain.ErrNotFound.
func (r *PgQueuedLookupRepository) FindUnresolvedByPhone(ctx context.Context, phoneNumber string) (*domain.QueuedLookup, error) {
	query := `
		SELECT ` + queuedLookupColumns + `
		FROM queued_lookups
		WHERE phone_number = $1 AND resolved_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var lookup domain.QueuedLookup
	row := r.db.QueryRow(ctx, query, phoneNumber)
	err := row.Scan(&lookup.ID, &lookup.Citation, &lookup.PhoneNumber, &lookup.CreatedAt, &lookup.ExpiresAt, &lookup.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error querying queued lookup by phone", "error", err, "phone_number", phoneNumber)
		return nil, fmt.Errorf("query queued lookup by phone: %w", err)
	}
	return &lookup, nil
}

// ListUnresolved returns up to limit unresolved entries, oldest first.
func (r *PgQueuedLookupRepository) ListUnresolved(ctx context.Context, limit int) ([]*domain.QueuedLookup, error) {
	query := `
		SELECT ` + queuedLookupColumns + `
		FROM queued_lookups
		WHERE resolved_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing unresolved queued lookups", "error", err)
		return nil, fmt.Errorf("list unresolved queued lookups: %w", err)
	}
	defer rows.Close()

	var lookups []*domain.QueuedLookup
	for rows.Next() {
		var lookup domain.QueuedLookup
		if err := rows.Scan(&lookup.ID, &lookup.Citation, &lookup.PhoneNumber, &lookup.CreatedAt, &lookup.ExpiresAt, &lookup.ResolvedAt); err != nil {
			return nil, err
		}
		lookups = append(lookups, &lookup)
	}
	return lookups, rows.Err()
}

// Resolve marks the entry resolved if it is still unresolved. The conditional
// update is the optimistic-concurrency guard between the sweep and inbound
// turns.
func (r *PgQueuedLookupRepository) Resolve(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE queued_lookups
		SET resolved_at = $2
		WHERE id = $1 AND resolved_at IS NULL
	`

	ct, err := r.db.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		r.logger.ErrorContext(ctx, "Error resolving queued lookup", "error", err, "lookup_id", id)
		return false, fmt.Errorf("resolve queued lookup: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
