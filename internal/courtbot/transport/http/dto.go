package http

import (
	"time"

	"github.com/google/uuid"
)

// IncomingSMSRequest is the provider callback payload for an inbound message.
type IncomingSMSRequest struct {
	MessageID string    `json:"message_id" validate:"required"`
	From      string    `json:"from" validate:"required"`
	To        string    `json:"to" validate:"required"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// IncomingSMSResponse echoes the reply segments the dialogue produced. The
// authoritative delivery path is the outbound queue; the segments here are
// informational for providers that log callback responses.
type IncomingSMSResponse struct {
	Status   string   `json:"status"`
	Segments []string `json:"segments,omitempty"`
}

// CaseResponse is one case in the search API output.
type CaseResponse struct {
	ID        uuid.UUID `json:"id"`
	Citation  string    `json:"citation"`
	Defendant string    `json:"defendant"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Room      string    `json:"room"`
	CourtType string    `json:"court_type"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the admin access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// QueuedLookupResponse is one queued lookup in the admin listing.
type QueuedLookupResponse struct {
	ID          uuid.UUID `json:"id"`
	Citation    string    `json:"citation"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
