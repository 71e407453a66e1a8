package app

import "context"

// Notifier delivers outbound text segments to a phone number. Implemented by
// the NATS adapter in production and by mocks in tests.
type Notifier interface {
	Send(ctx context.Context, phoneNumber string, segments []string) error
}
