package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// Citation length bounds. Inputs outside these bounds are format errors and
// are never eligible for queueing.
const (
	MinCitationLen = 6
	MaxCitationLen = 25
)

// MatchOutcome classifies a citation lookup.
type MatchOutcome string

const (
	// MatchUnique: exactly one stored record has this citation number.
	MatchUnique MatchOutcome = "unique"
	// MatchQueueable: no unique record, but the citation text is plausible
	// (within length bounds) and eligible for a queued lookup. Zero hits and
	// multiple hits land here alike; the system cannot disambiguate by
	// citation number alone and deliberately does not leak ambiguity.
	MatchQueueable MatchOutcome = "queueable"
	// MatchMalformed: citation text out of length bounds. Reply only.
	MatchMalformed MatchOutcome = "malformed"
)

// MatchResult carries the normalized citation and, for a unique match, the
// record found.
type MatchResult struct {
	Outcome  MatchOutcome
	Citation string
	Case     *domain.CaseRecord // set only when Outcome == MatchUnique
}

// Matcher turns raw inbound text into a match outcome. It is read-only
// against the case store and keeps no state of its own.
type Matcher struct {
	cases  domain.CaseRepository
	logger *slog.Logger
}

// NewMatcher creates a new Matcher instance.
func NewMatcher(cases domain.CaseRepository, logger *slog.Logger) *Matcher {
	return &Matcher{cases: cases, logger: logger}
}

// NormalizeCitation canonicalizes user-supplied citation text: trimmed and
// upper-cased, matching how citations are stored.
func NormalizeCitation(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// Match looks the raw text up as a citation number.
func (m *Matcher) Match(ctx context.Context, raw string) (MatchResult, error) {
	citation := NormalizeCitation(raw)

	records, err := m.cases.FindByCitation(ctx, citation)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find by citation %q: %w", citation, err)
	}

	if len(records) == 1 {
		rec := records[0]
		return MatchResult{Outcome: MatchUnique, Citation: citation, Case: &rec}, nil
	}

	if len(records) > 1 {
		m.logger.WarnContext(ctx, "Multiple records share one citation number, treating as no unique match",
			"citation", citation, "count", len(records))
	}

	if len(citation) < MinCitationLen || len(citation) > MaxCitationLen {
		return MatchResult{Outcome: MatchMalformed, Citation: citation}, nil
	}
	return MatchResult{Outcome: MatchQueueable, Citation: citation}, nil
}
