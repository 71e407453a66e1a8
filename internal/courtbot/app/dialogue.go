package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// DialogueConfig holds configuration specific to the DialogueController.
type DialogueConfig struct {
	QueueTTLDays int           `mapstructure:"QUEUE_TTL_DAYS"`
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT"`
}

// DialogueController resolves a sender's multi-turn exchange into replies and
// store mutations. Each inbound message runs load state -> decide -> persist
// under a per-sender lock, so a rapid double-send cannot observe the same
// pending question twice.
type DialogueController struct {
	matcher       *Matcher
	conversations domain.ConversationRepository
	queue         domain.QueuedLookupRepository
	reminders     domain.ReminderRepository
	notifier      Notifier
	render        *MessageRenderer
	logger        *slog.Logger
	config        DialogueConfig

	mu          sync.Mutex
	senderLocks map[string]*sync.Mutex
}

// NewDialogueController creates a new DialogueController instance.
func NewDialogueController(
	matcher *Matcher,
	conversations domain.ConversationRepository,
	queue domain.QueuedLookupRepository,
	reminders domain.ReminderRepository,
	notifier Notifier,
	render *MessageRenderer,
	logger *slog.Logger,
	config DialogueConfig,
) *DialogueController {
	return &DialogueController{
		matcher:       matcher,
		conversations: conversations,
		queue:         queue,
		reminders:     reminders,
		notifier:      notifier,
		render:        render,
		logger:        logger,
		config:        config,
		senderLocks:   make(map[string]*sync.Mutex),
	}
}

// parseConfirmation classifies a reply to a pending question. ok is false for
// anything that is not a recognized affirmative or negative token.
func parseConfirmation(text string) (affirmative bool, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "YES", "Y", "YEA", "YUP":
		return true, true
	case "NO", "N":
		return false, true
	}
	return false, false
}

// HandleMessage processes one inbound message and returns the reply segments
// (possibly none: unrecognized answers to a pending question are silently
// ignored). Store failures never escape; they become an apology reply plus an
// operator log entry, so one sender's failure cannot take down processing for
// others. Replies are also delivered through the outbound notifier.
func (c *DialogueController) HandleMessage(ctx context.Context, from string, body string) []string {
	lock := c.lockFor(from)
	lock.Lock()
	defer lock.Unlock()

	if c.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.StoreTimeout)
		defer cancel()
	}

	state, err := c.loadState(ctx, from)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to load conversation state", "phone_number", from, "error", err)
		dialogueTurnsCounter.WithLabelValues("store_error").Inc()
		return c.deliver(ctx, from, c.render.Apology())
	}

	var reply []string
	switch state.Pending {
	case domain.PendingReminderConfirm:
		reply = c.answerReminderConfirm(ctx, state, body)
	case domain.PendingQueueConfirm:
		reply = c.answerQueueConfirm(ctx, state, body)
	default:
		reply = c.lookup(ctx, state, body)
	}

	return c.deliver(ctx, from, reply)
}

// lockFor returns the mutex serializing turns for one sender. Locks are tiny
// and live for the life of the process; the map grows with the set of distinct
// senders seen.
func (c *DialogueController) lockFor(phoneNumber string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.senderLocks[phoneNumber]
	if !ok {
		lock = &sync.Mutex{}
		c.senderLocks[phoneNumber] = lock
	}
	return lock
}

// loadState fetches the sender's persisted state. When none exists (first
// contact, or state lost across a restart) an unresolved queued-lookup row is
// the only durable record of a mid-dialogue question, so its presence is
// treated as an implicit pending queue confirmation.
func (c *DialogueController) loadState(ctx context.Context, phoneNumber string) (*domain.ConversationState, error) {
	state, err := c.conversations.Get(ctx, phoneNumber)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	lookup, err := c.queue.FindUnresolvedByPhone(ctx, phoneNumber)
	if err == nil {
		c.logger.InfoContext(ctx, "Reconstructed pending queue confirmation from queued lookup",
			"phone_number", phoneNumber, "citation", lookup.Citation)
		state = domain.NewConversationState(phoneNumber)
		state.Pending = domain.PendingQueueConfirm
		state.PendingCitation = lookup.Citation
		return state, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return domain.NewConversationState(phoneNumber), nil
}

// lookup handles a message with no question pending: run the matcher and ask
// the follow-up question the outcome calls for.
func (c *DialogueController) lookup(ctx context.Context, state *domain.ConversationState, body string) []string {
	if _, ok := parseConfirmation(body); ok {
		// A bare yes/no with nothing pending is a stale confirmation (for
		// example the second of a double-send). Ignored, never re-applied.
		c.logger.DebugContext(ctx, "Ignoring stale confirmation", "phone_number", state.PhoneNumber)
		dialogueTurnsCounter.WithLabelValues("ignored").Inc()
		return nil
	}

	result, err := c.matcher.Match(ctx, body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Citation lookup failed", "phone_number", state.PhoneNumber, "error", err)
		dialogueTurnsCounter.WithLabelValues("store_error").Inc()
		return c.render.Apology()
	}

	switch result.Outcome {
	case MatchUnique:
		state.Reset()
		state.Pending = domain.PendingReminderConfirm
		state.SetMatchedCase(*result.Case)
		state.PendingCitation = result.Citation
		if err := c.saveState(ctx, state); err != nil {
			c.logger.ErrorContext(ctx, "Failed to persist reminder question", "phone_number", state.PhoneNumber, "error", err)
			dialogueTurnsCounter.WithLabelValues("store_error").Inc()
			return c.render.Apology()
		}
		dialogueTurnsCounter.WithLabelValues("case_found").Inc()
		return c.render.CaseFound(result.Case)

	case MatchQueueable:
		state.Reset()
		state.Pending = domain.PendingQueueConfirm
		state.PendingCitation = result.Citation
		if err := c.saveState(ctx, state); err != nil {
			c.logger.ErrorContext(ctx, "Failed to persist queue question", "phone_number", state.PhoneNumber, "error", err)
			dialogueTurnsCounter.WithLabelValues("store_error").Inc()
			return c.render.Apology()
		}
		dialogueTurnsCounter.WithLabelValues("queue_offered").Inc()
		return c.render.CaseNotFound(result.Citation)

	default: // MatchMalformed
		state.Reset()
		if err := c.saveState(ctx, state); err != nil {
			// The sender stays idle either way; reply with the format help.
			c.logger.WarnContext(ctx, "Failed to persist idle state", "phone_number", state.PhoneNumber, "error", err)
		}
		dialogueTurnsCounter.WithLabelValues("malformed").Inc()
		return c.render.MalformedCitation()
	}
}

// answerReminderConfirm resolves the "want a reminder?" question.
func (c *DialogueController) answerReminderConfirm(ctx context.Context, state *domain.ConversationState, body string) []string {
	affirmative, ok := parseConfirmation(body)
	if !ok {
		// Silently await a recognized answer; state unchanged.
		dialogueTurnsCounter.WithLabelValues("ignored").Inc()
		return nil
	}

	if !affirmative {
		state.Reset()
		if err := c.saveState(ctx, state); err != nil {
			c.logger.ErrorContext(ctx, "Failed to persist opt-out", "phone_number", state.PhoneNumber, "error", err)
			dialogueTurnsCounter.WithLabelValues("store_error").Inc()
			return c.render.Apology()
		}
		dialogueTurnsCounter.WithLabelValues("declined").Inc()
		return c.render.OptOut()
	}

	if state.MatchedCase == nil {
		// Pending question restored without its snapshot; nothing safe to
		// subscribe from. Treat as stale.
		c.logger.WarnContext(ctx, "Reminder confirmation with no case snapshot, resetting", "phone_number", state.PhoneNumber)
		state.Reset()
		if err := c.saveState(ctx, state); err != nil {
			c.logger.WarnContext(ctx, "Failed to persist idle state", "phone_number", state.PhoneNumber, "error", err)
		}
		dialogueTurnsCounter.WithLabelValues("ignored").Inc()
		return nil
	}

	sub := domain.NewReminderSubscription(uuid.New(), state.PhoneNumber, *state.MatchedCase, time.Now().UTC())
	if err := c.reminders.Create(ctx, sub); err != nil {
		// Keep the question pending so the sender's next YES retries.
		c.logger.ErrorContext(ctx, "Failed to create reminder subscription", "phone_number", state.PhoneNumber, "citation", sub.Citation, "error", err)
		dialogueTurnsCounter.WithLabelValues("store_error").Inc()
		return c.render.Apology()
	}

	state.Reset()
	if err := c.saveState(ctx, state); err != nil {
		// The subscription exists; a replayed YES lands in lookup() and is
		// ignored as stale rather than double-applied.
		c.logger.ErrorContext(ctx, "Failed to persist idle state after reminder opt-in", "phone_number", state.PhoneNumber, "error", err)
	}
	dialogueTurnsCounter.WithLabelValues("confirmed").Inc()
	return c.render.ReminderConfirmed()
}

// answerQueueConfirm resolves the "keep checking?" question.
func (c *DialogueController) answerQueueConfirm(ctx context.Context, state *domain.ConversationState, body string) []string {
	affirmative, ok := parseConfirmation(body)
	if !ok {
		dialogueTurnsCounter.WithLabelValues("ignored").Inc()
		return nil
	}

	if !affirmative {
		c.cancelQueuedLookup(ctx, state)
		state.Reset()
		if err := c.saveState(ctx, state); err != nil {
			c.logger.ErrorContext(ctx, "Failed to persist opt-out", "phone_number", state.PhoneNumber, "error", err)
			dialogueTurnsCounter.WithLabelValues("store_error").Inc()
			return c.render.Apology()
		}
		dialogueTurnsCounter.WithLabelValues("declined").Inc()
		return c.render.OptOut()
	}

	if state.PendingCitation == "" {
		c.logger.WarnContext(ctx, "Queue confirmation with no pending citation, resetting", "phone_number", state.PhoneNumber)
		state.Reset()
		if err := c.saveState(ctx, state); err != nil {
			c.logger.WarnContext(ctx, "Failed to persist idle state", "phone_number", state.PhoneNumber, "error", err)
		}
		dialogueTurnsCounter.WithLabelValues("ignored").Inc()
		return nil
	}

	lookup := domain.NewQueuedLookup(uuid.New(), state.PendingCitation, state.PhoneNumber, time.Now().UTC(), c.config.QueueTTLDays)
	if err := c.queue.Create(ctx, lookup); err != nil {
		// Apologize and keep the sender at the queue offer; the next YES
		// retries. Create is idempotent per phone+citation, so a retry after
		// a half-applied write cannot duplicate the entry.
		c.logger.ErrorContext(ctx, "Failed to create queued lookup", "phone_number", state.PhoneNumber, "citation", lookup.Citation, "error", err)
		dialogueTurnsCounter.WithLabelValues("store_error").Inc()
		return c.render.Apology()
	}

	state.Reset()
	if err := c.saveState(ctx, state); err != nil {
		c.logger.ErrorContext(ctx, "Failed to persist idle state after queue opt-in", "phone_number", state.PhoneNumber, "error", err)
	}
	dialogueTurnsCounter.WithLabelValues("confirmed").Inc()
	return c.render.QueueConfirmed()
}

// cancelQueuedLookup resolves the durable queued-lookup row behind a
// reconstructed queue confirmation when the sender declines it. In the normal
// flow no row exists yet and this is a no-op.
func (c *DialogueController) cancelQueuedLookup(ctx context.Context, state *domain.ConversationState) {
	lookup, err := c.queue.FindUnresolvedByPhone(ctx, state.PhoneNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WarnContext(ctx, "Failed to look up queued entry on decline", "phone_number", state.PhoneNumber, "error", err)
		}
		return
	}
	if lookup.Citation != state.PendingCitation {
		return
	}
	if _, err := c.queue.Resolve(ctx, lookup.ID); err != nil {
		c.logger.WarnContext(ctx, "Failed to resolve declined queued lookup", "phone_number", state.PhoneNumber, "lookup_id", lookup.ID, "error", err)
	}
}

func (c *DialogueController) saveState(ctx context.Context, state *domain.ConversationState) error {
	state.UpdatedAt = time.Now().UTC()
	return c.conversations.Save(ctx, state)
}

// deliver publishes the reply through the outbound notifier. Delivery failure
// is logged only; the segments are still returned so the transport can answer
// the webhook.
func (c *DialogueController) deliver(ctx context.Context, phoneNumber string, segments []string) []string {
	if len(segments) == 0 {
		return nil
	}
	if err := c.notifier.Send(ctx, phoneNumber, segments); err != nil {
		c.logger.ErrorContext(ctx, "Failed to deliver reply", "phone_number", phoneNumber, "segments", len(segments), "error", err)
	}
	return segments
}
