package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReminderSubscription is a one-time "text me the day before my court date"
// request. The case fields are a snapshot taken at subscription time, stored
// as a copy because court data can change after the sender opted in. A
// separate day-before notifier consumes these rows.
type ReminderSubscription struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Citation    string    `json:"citation"`
	Defendant   string    `json:"defendant"`
	CaseDate    time.Time `json:"case_date"`
	CaseTime    string    `json:"case_time"`
	Room        string    `json:"room"`
	CourtType   string    `json:"court_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewReminderSubscription snapshots rec for the given sender.
func NewReminderSubscription(id uuid.UUID, phoneNumber string, rec CaseRecord, now time.Time) *ReminderSubscription {
	return &ReminderSubscription{
		ID:          id,
		PhoneNumber: phoneNumber,
		Citation:    rec.Citation,
		Defendant:   rec.Defendant,
		CaseDate:    rec.Date,
		CaseTime:    rec.Time,
		Room:        rec.Room,
		CourtType:   rec.CourtType,
		CreatedAt:   now,
	}
}
