package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// OutboundSubject is where outbound SMS payloads are published. A delivery
// worker owning the provider credentials consumes this subject.
const OutboundSubject = "sms.outgoing.courtbot"

// Publisher is the slice of the message broker client this adapter needs.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// OutboundSMS is the wire payload for one outbound segment.
type OutboundSMS struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// NATSNotifier delivers outbound segments by publishing them to NATS, one
// message per segment so the delivery worker can rate-limit per part.
type NATSNotifier struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewNATSNotifier creates a new NATSNotifier instance.
func NewNATSNotifier(publisher Publisher, logger *slog.Logger) *NATSNotifier {
	return &NATSNotifier{publisher: publisher, logger: logger}
}

// Send publishes each segment in order. Segments after a failed publish are
// not sent; the caller decides whether to retry the whole notification.
func (n *NATSNotifier) Send(ctx context.Context, phoneNumber string, segments []string) error {
	for i, segment := range segments {
		data, err := json.Marshal(OutboundSMS{To: phoneNumber, Text: segment})
		if err != nil {
			return fmt.Errorf("marshal outbound sms: %w", err)
		}
		if err := n.publisher.Publish(ctx, OutboundSubject, data); err != nil {
			return fmt.Errorf("publish outbound sms segment %d/%d: %w", i+1, len(segments), err)
		}
	}
	n.logger.DebugContext(ctx, "Outbound segments published", "phone_number", phoneNumber, "segments", len(segments))
	return nil
}
