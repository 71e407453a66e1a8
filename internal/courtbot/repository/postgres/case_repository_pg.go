package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// PgCaseRepository is the PostgreSQL implementation of CaseRepository. The
// cases table is written by the external ingestion process; this repository
// only reads.
type PgCaseRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgCaseRepository creates a new PostgreSQL implementation of CaseRepository.
func NewPgCaseRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgCaseRepository {
	return &PgCaseRepository{db: dbPool, logger: logger}
}

const caseColumns = `id, citation, defendant, case_date, case_time, room, court_type`

func scanCases(rows pgx.Rows) ([]domain.CaseRecord, error) {
	var records []domain.CaseRecord
	for rows.Next() {
		var rec domain.CaseRecord
		if err := rows.Scan(&rec.ID, &rec.Citation, &rec.Defendant, &rec.Date, &rec.Time, &rec.Room, &rec.CourtType); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindByCitation returns all records whose citation equals the given text.
func (r *PgCaseRepository) FindByCitation(ctx context.Context, citation string) ([]domain.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE citation = $1`

	rows, err := r.db.Query(ctx, query, citation)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error querying cases by citation", "error", err, "citation", citation)
		return nil, fmt.Errorf("query cases by citation: %w", err)
	}
	defer rows.Close()

	return scanCases(rows)
}

// Search performs a fuzzy lookup over citation numbers and defendant names.
func (r *PgCaseRepository) Search(ctx context.Context, query string, limit int) ([]domain.CaseRecord, error) {
	sql := `
		SELECT ` + caseColumns + `
		FROM cases
		WHERE citation ILIKE '%' || $1 || '%' OR defendant ILIKE '%' || $1 || '%'
		ORDER BY case_date, citation
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, sql, query, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error searching cases", "error", err, "query", query)
		return nil, fmt.Errorf("search cases: %w", err)
	}
	defer rows.Close()

	return scanCases(rows)
}
