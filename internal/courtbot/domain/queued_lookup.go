package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// QueuedLookup is a standing request: notify this phone number if/when a case
// matching the citation text appears, until the entry expires.
type QueuedLookup struct {
	ID          uuid.UUID    `json:"id"`
	Citation    string       `json:"citation"` // Normalized citation text as queued
	PhoneNumber string       `json:"phone_number"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"` // CreatedAt + TTL days
	ResolvedAt  sql.NullTime `json:"resolved_at,omitempty"`
}

// NewQueuedLookup creates an unresolved queued lookup with an expiry derived
// from the configured TTL.
func NewQueuedLookup(id uuid.UUID, citation, phoneNumber string, now time.Time, ttlDays int) *QueuedLookup {
	return &QueuedLookup{
		ID:          id,
		Citation:    citation,
		PhoneNumber: phoneNumber,
		CreatedAt:   now,
		ExpiresAt:   now.AddDate(0, 0, ttlDays),
	}
}

// Expired reports whether the entry's TTL has elapsed at the given instant.
func (q *QueuedLookup) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
