package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

const adminListLimit = 200

// AdminConfig holds the admin API settings.
type AdminConfig struct {
	PasswordHash     string // bcrypt hash of the operator password
	JWTSecret        string
	TokenExpiryHours int
}

// AdminHandler exposes operator endpoints: login plus inspection and manual
// resolution of queued lookups.
type AdminHandler struct {
	queue    domain.QueuedLookupRepository
	config   AdminConfig
	logger   *slog.Logger
	validate *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(queue domain.QueuedLookupRepository, config AdminConfig, logger *slog.Logger, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{
		queue:    queue,
		config:   config,
		logger:   logger.With("handler", "admin"),
		validate: validate,
	}
}

// RegisterRoutes registers the admin routes. Everything except login sits
// behind the JWT middleware.
func (h *AdminHandler) RegisterRoutes(r chi.Router, auth *AuthMiddleware) {
	r.Post("/admin/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(auth.Handler)
		r.Get("/admin/queued-lookups", h.handleListQueuedLookups)
		r.Post("/admin/queued-lookups/{id}/resolve", h.handleResolveQueuedLookup)
	})
}

func (h *AdminHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if h.config.PasswordHash == "" {
		h.logger.ErrorContext(ctx, "Admin login attempted but no password hash is configured")
		http.Error(w, "Admin access is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.config.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.WarnContext(ctx, "Admin login failed")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	expiresAt := time.Now().UTC().Add(time.Duration(h.config.TokenExpiryHours) * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": expiresAt.Unix(),
		"iat": time.Now().UTC().Unix(),
	})
	signed, err := token.SignedString([]byte(h.config.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to sign admin token", "error", err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{AccessToken: signed, ExpiresAt: expiresAt})
}

func (h *AdminHandler) handleListQueuedLookups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lookups, err := h.queue.ListUnresolved(ctx, adminListLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list queued lookups", "error", err)
		http.Error(w, "Failed to list queued lookups", http.StatusInternalServerError)
		return
	}

	resp := make([]QueuedLookupResponse, 0, len(lookups))
	for _, lookup := range lookups {
		resp = append(resp, QueuedLookupResponse{
			ID:          lookup.ID,
			Citation:    lookup.Citation,
			PhoneNumber: lookup.PhoneNumber,
			CreatedAt:   lookup.CreatedAt,
			ExpiresAt:   lookup.ExpiresAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) handleResolveQueuedLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid lookup id", http.StatusBadRequest)
		return
	}

	resolved, err := h.queue.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Queued lookup not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "Failed to resolve queued lookup", "lookup_id", id, "error", err)
		http.Error(w, "Failed to resolve queued lookup", http.StatusInternalServerError)
		return
	}
	if !resolved {
		http.Error(w, "Queued lookup not found or already resolved", http.StatusNotFound)
		return
	}

	h.logger.InfoContext(ctx, "Queued lookup resolved by operator", "lookup_id", id)
	w.WriteHeader(http.StatusNoContent)
}
