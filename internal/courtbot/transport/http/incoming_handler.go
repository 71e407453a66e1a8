package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware" // For GetReqID
	"github.com/go-playground/validator/v10"
)

// DialogueService is the slice of the dialogue controller the webhook needs.
type DialogueService interface {
	HandleMessage(ctx context.Context, from string, body string) []string
}

// IncomingHandler handles inbound SMS callbacks from providers.
type IncomingHandler struct {
	dialogue DialogueService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewIncomingHandler creates a new IncomingHandler.
func NewIncomingHandler(dialogue DialogueService, logger *slog.Logger, validate *validator.Validate) *IncomingHandler {
	return &IncomingHandler{
		dialogue: dialogue,
		logger:   logger.With("handler", "incoming"),
		validate: validate,
	}
}

// RegisterRoutes registers the provider callback routes.
func (h *IncomingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/callbacks/{provider_name}/incoming-sms", h.HandleIncomingSMSCallback)
}

// HandleIncomingSMSCallback accepts one inbound message, runs it through the
// dialogue, and echoes the reply segments.
func (h *IncomingHandler) HandleIncomingSMSCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	providerName := chi.URLParam(r, "provider_name")
	if providerName == "" {
		logger.WarnContext(ctx, "Provider name missing in incoming SMS callback URL")
		http.Error(w, "Provider name is required", http.StatusBadRequest)
		return
	}
	logger = logger.With("provider_name", providerName)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	var req IncomingSMSRequest
	if err := json.Unmarshal(body, &req); err != nil {
		logger.ErrorContext(ctx, "Failed to decode incoming SMS JSON", "error", err, "body", string(body))
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.ErrorContext(ctx, "Failed to validate incoming SMS request", "error", err)
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	logger.InfoContext(ctx, "Received inbound SMS", "message_id", req.MessageID, "from", req.From, "text_len", len(req.Text))

	segments := h.dialogue.HandleMessage(ctx, req.From, req.Text)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(IncomingSMSResponse{Status: "processed", Segments: segments})
}
