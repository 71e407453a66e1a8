package domain

import (
	"time"

	"github.com/google/uuid"
)

// CaseRecord is a court case as ingested from the court's data feed.
// Records are created by an external ingestion process and are read-only
// to this service.
type CaseRecord struct {
	ID        uuid.UUID `json:"id"`
	Citation  string    `json:"citation"`   // Normalized (upper-case) citation number
	Defendant string    `json:"defendant"`  // As ingested; rendered title-case for outbound text
	Date      time.Time `json:"date"`       // Scheduled court date (midnight, court-local)
	Time      string    `json:"time"`       // Scheduled clock time, "15:04"
	Room      string    `json:"room"`
	CourtType string    `json:"court_type"` // e.g. "municipal", "district"
}
