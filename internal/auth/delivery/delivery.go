// Package delivery sends OTP messages to phones. The log channel is used in
// development; Twilio and AWS SNS are the live providers.
package delivery

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

// ErrNotConfigured is returned when a live provider lacks credentials.
var ErrNotConfigured = errors.New("delivery: provider not configured")

// Receipt describes a dispatched message.
type Receipt struct {
	Provider  string
	MessageID string
}

// Channel sends a text message to a phone number.
type Channel interface {
	Send(ctx context.Context, phone, message string) (Receipt, error)
}

// LogChannel writes the message to the log instead of sending it.
type LogChannel struct {
	Logger *slog.Logger
}

// NewLogChannel returns a LogChannel. A nil logger falls back to the
// request-scoped one.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{Logger: logger}
}

func (c *LogChannel) Send(ctx context.Context, phone, message string) (Receipt, error) {
	log := c.Logger
	if log == nil {
		log = slogx.FromContext(ctx)
	}
	log.InfoContext(ctx, "dev mode: otp message not sent",
		slogx.Phone(phone),
		"message", message,
	)
	return Receipt{Provider: "log"}, nil
}
