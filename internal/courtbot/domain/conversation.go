package domain

import "time"

// PendingQuestion is the question (if any) the bot has asked a sender and is
// waiting on an answer for.
type PendingQuestion string

const (
	PendingNone            PendingQuestion = "none"
	PendingReminderConfirm PendingQuestion = "reminder_confirm"
	PendingQueueConfirm    PendingQuestion = "queue_confirm"
)

// ConversationState is the per-sender dialogue state, keyed by phone number.
// It is overwritten on every inbound message and persisted so a pending
// confirmation survives a process restart. A sender has at most one pending
// question at a time.
type ConversationState struct {
	PhoneNumber     string          `json:"phone_number"`
	Pending         PendingQuestion `json:"pending"`
	MatchedCase     *CaseRecord     `json:"matched_case,omitempty"` // snapshot, never a live reference
	PendingCitation string          `json:"pending_citation,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewConversationState returns a fresh idle state for a sender.
func NewConversationState(phoneNumber string) *ConversationState {
	return &ConversationState{
		PhoneNumber: phoneNumber,
		Pending:     PendingNone,
		UpdatedAt:   time.Now().UTC(),
	}
}

// SetMatchedCase stores a value copy of rec. The underlying court record may
// change after the snapshot is taken; the snapshot is what the sender was
// shown.
func (s *ConversationState) SetMatchedCase(rec CaseRecord) {
	snapshot := rec
	s.MatchedCase = &snapshot
}

// Reset clears any pending question and its context, returning the sender to
// an idle dialogue.
func (s *ConversationState) Reset() {
	s.Pending = PendingNone
	s.MatchedCase = nil
	s.PendingCitation = ""
}
