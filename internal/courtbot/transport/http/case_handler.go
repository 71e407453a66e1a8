package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

const searchResultLimit = 25

// CaseHandler serves the public case-search API backed by the fuzzy lookup.
type CaseHandler struct {
	cases  domain.CaseRepository
	logger *slog.Logger
}

// NewCaseHandler creates a new CaseHandler.
func NewCaseHandler(cases domain.CaseRepository, logger *slog.Logger) *CaseHandler {
	return &CaseHandler{
		cases:  cases,
		logger: logger.With("handler", "cases"),
	}
}

// RegisterRoutes registers the case search routes.
func (h *CaseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/cases", h.handleSearch)
}

func (h *CaseHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		http.Error(w, "Query parameter 'q' must be at least 2 characters", http.StatusBadRequest)
		return
	}

	records, err := h.cases.Search(ctx, query, searchResultLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Case search failed", "query", query, "error", err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	resp := make([]CaseResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, CaseResponse{
			ID:        rec.ID,
			Citation:  rec.Citation,
			Defendant: rec.Defendant,
			Date:      rec.Date.Format("2006-01-02"),
			Time:      rec.Time,
			Room:      rec.Room,
			CourtType: rec.CourtType,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
