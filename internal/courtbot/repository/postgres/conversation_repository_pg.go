package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// PgConversationRepository persists per-sender dialogue state. One row per
// phone number, upserted on every turn; the matched-case snapshot is stored
// as JSONB.
type PgConversationRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgConversationRepository creates a new PostgreSQL implementation of ConversationRepository.
func NewPgConversationRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgConversationRepository {
	return &PgConversationRepository{db: dbPool, logger: logger}
}

// Get returns the state for a phone number, or domain.ErrNotFound.
func (r *PgConversationRepository) Get(ctx context.Context, phoneNumber string) (*domain.ConversationState, error) {
	query := `
		SELECT phone_number, pending, case_snapshot, pending_citation, updated_at
		FROM conversation_states
		WHERE phone_number = $1
	`

	var (
		state    domain.ConversationState
		snapshot []byte
	)
	row := r.db.QueryRow(ctx, query, phoneNumber)
	if err := row.Scan(&state.PhoneNumber, &state.Pending, &snapshot, &state.PendingCitation, &state.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error querying conversation state", "error", err, "phone_number", phoneNumber)
		return nil, fmt.Errorf("query conversation state: %w", err)
	}

	if len(snapshot) > 0 {
		var rec domain.CaseRecord
		if err := json.Unmarshal(snapshot, &rec); err != nil {
			return nil, fmt.Errorf("decode case snapshot for %s: %w", phoneNumber, err)
		}
		state.MatchedCase = &rec
	}
	return &state, nil
}

// Save upserts the state for state.PhoneNumber.
func (r *PgConversationRepository) Save(ctx context.Context, state *domain.ConversationState) error {
	var snapshot []byte
	if state.MatchedCase != nil {
		var err error
		snapshot, err = json.Marshal(state.MatchedCase)
		if err != nil {
			return fmt.Errorf("encode case snapshot for %s: %w", state.PhoneNumber, err)
		}
	}

	query := `
		INSERT INTO conversation_states (phone_number, pending, case_snapshot, pending_citation, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number) DO UPDATE SET
			pending = EXCLUDED.pending,
			case_snapshot = EXCLUDED.case_snapshot,
			pending_citation = EXCLUDED.pending_citation,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		state.PhoneNumber,
		state.Pending,
		snapshot,
		state.PendingCitation,
		state.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting conversation state", "error", err, "phone_number", state.PhoneNumber)
		return fmt.Errorf("upsert conversation state: %w", err)
	}
	return nil
}
