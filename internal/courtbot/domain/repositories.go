package domain

import (
	"context"

	"github.com/google/uuid"
)

// CaseRepository is the read side of the citation store.
type CaseRepository interface {
	// FindByCitation returns every record whose citation number equals the
	// given (already normalized) citation text. Zero, one, or many rows.
	FindByCitation(ctx context.Context, citation string) ([]CaseRecord, error)

	// Search performs a fuzzy lookup over citation numbers and defendant
	// names. Used by the case-search API, not by the SMS dialogue.
	Search(ctx context.Context, query string, limit int) ([]CaseRecord, error)
}

// ConversationRepository persists per-sender dialogue state so a pending
// confirmation survives a restart.
type ConversationRepository interface {
	// Get returns the state for a phone number, or ErrNotFound.
	Get(ctx context.Context, phoneNumber string) (*ConversationState, error)

	// Save upserts the state for state.PhoneNumber.
	Save(ctx context.Context, state *ConversationState) error
}

// QueuedLookupRepository persists "keep checking" requests.
type QueuedLookupRepository interface {
	// Create inserts the entry. Creation is idempotent per
	// (phone number, citation): re-creating an existing unresolved entry is
	// a no-op, so a confirmation replayed after a restart cannot duplicate
	// rows.
	Create(ctx context.Context, lookup *QueuedLookup) error

	// FindUnresolvedByPhone returns the sender's unresolved entry, or
	// ErrNotFound. Used to reconstruct a pending queue confirmation after a
	// restart.
	FindUnresolvedByPhone(ctx context.Context, phoneNumber string) (*QueuedLookup, error)

	// ListUnresolved returns up to limit unresolved entries for the sweep.
	ListUnresolved(ctx context.Context, limit int) ([]*QueuedLookup, error)

	// Resolve marks the entry resolved if it is still unresolved. Returns
	// false when another writer (sweep vs. inbound turn) got there first.
	Resolve(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReminderRepository persists reminder subscriptions.
type ReminderRepository interface {
	Create(ctx context.Context, sub *ReminderSubscription) error
}
