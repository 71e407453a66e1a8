package app

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// segmentLimit is the transport-imposed per-message length. Replies longer
// than one message are authored as explicit parts and numbered "(1/2) ...".
const segmentLimit = 160

// MessageRenderer produces every user-facing text the bot sends.
type MessageRenderer struct {
	publicURL    string
	queueTTLDays int
}

// NewMessageRenderer creates a renderer bound to the configured public court
// URL and queue TTL.
func NewMessageRenderer(publicURL string, queueTTLDays int) *MessageRenderer {
	return &MessageRenderer{publicURL: publicURL, queueTTLDays: queueTTLDays}
}

// TitleCaseName renders a defendant name with each whitespace-delimited token
// capitalized and the remainder lowercased: "john q public" -> "John Q Public".
func TitleCaseName(name string) string {
	fields := strings.Fields(name)
	for i, field := range fields {
		runes := []rune(strings.ToLower(field))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

// FormatCaseDate renders a court date as weekday + month + ordinal day,
// e.g. "Mon, Mar 4th".
func FormatCaseDate(t time.Time) string {
	return fmt.Sprintf("%s, %s %s", t.Format("Mon"), t.Format("Jan"), ordinal(t.Day()))
}

// FormatCaseTime renders a "15:04" clock string as "3:04 PM". The clock is
// parsed against a fixed reference date so only the time of day matters.
// Unparseable input is passed through untouched.
func FormatCaseTime(clock string) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}

func ordinal(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

// numberParts prefixes each part with its "(i/n)" position when there is more
// than one part. Single-part replies go out unnumbered.
func numberParts(parts ...string) []string {
	if len(parts) <= 1 {
		return parts
	}
	numbered := make([]string, len(parts))
	for i, part := range parts {
		numbered[i] = fmt.Sprintf("(%d/%d) %s", i+1, len(parts), part)
	}
	return numbered
}

func (r *MessageRenderer) caseSummary(rec *domain.CaseRecord) string {
	return fmt.Sprintf("Found a case for %s: citation %s, %s court on %s at %s, room %s.",
		TitleCaseName(rec.Defendant), rec.Citation, rec.CourtType,
		FormatCaseDate(rec.Date), FormatCaseTime(rec.Time), rec.Room)
}

// CaseFound is the unique-match reply: case summary plus the reminder prompt.
func (r *MessageRenderer) CaseFound(rec *domain.CaseRecord) []string {
	return []string{fmt.Sprintf("%s Would you like a reminder the day before? Reply YES or NO.",
		r.caseSummary(rec))}
}

// CaseNotFound is the plausible-but-unfound reply, sent as two numbered parts
// ending in the queue offer.
func (r *MessageRenderer) CaseNotFound(citation string) []string {
	return numberParts(
		fmt.Sprintf("We could not find citation %s. It can take several days for new citations to appear in our system.", citation),
		fmt.Sprintf("Would you like us to keep checking for the next %d days and text you if we find it? Reply YES or NO.", r.queueTTLDays),
	)
}

// MalformedCitation is the format-error reply for out-of-bounds input.
func (r *MessageRenderer) MalformedCitation() []string {
	return []string{fmt.Sprintf("Citation numbers are %d to %d characters. Please check the number and text it to us again.",
		MinCitationLen, MaxCitationLen)}
}

// ReminderConfirmed is the two-part acceptance reply for a reminder opt-in.
func (r *MessageRenderer) ReminderConfirmed() []string {
	return numberParts(
		"You are all set. We will text you a reminder the day before your court date.",
		fmt.Sprintf("Court dates and times can change. Check %s for the latest information.", r.publicURL),
	)
}

// QueueConfirmed acknowledges a "keep checking" opt-in.
func (r *MessageRenderer) QueueConfirmed() []string {
	return []string{fmt.Sprintf("We will keep checking for %d days and text you if your citation appears.", r.queueTTLDays)}
}

// OptOut acknowledges a declined offer.
func (r *MessageRenderer) OptOut() []string {
	return []string{"No problem. Text us your citation number any time to look it up."}
}

// Apology is the generic store-failure reply.
func (r *MessageRenderer) Apology() []string {
	return []string{"We are sorry, something went wrong on our end. Please try again in a few minutes."}
}

// QueueMatchFound is the sweep's notification when a queued citation appears.
func (r *MessageRenderer) QueueMatchFound(rec *domain.CaseRecord) []string {
	return []string{fmt.Sprintf("Good news: %s Text this citation number back to us to set a reminder.", r.caseSummary(rec))}
}

// QueueExpired is the sweep's notice when an entry's TTL elapses unmatched.
func (r *MessageRenderer) QueueExpired(citation string) []string {
	return []string{fmt.Sprintf("We have stopped checking for citation %s. If you still have not found your case, visit %s.",
		citation, r.publicURL)}
}
