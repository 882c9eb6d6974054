package delivery

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is satisfied by twilio's *ApiService.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds the account credentials and sending number.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Configured reports whether every field needed to send is present.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// TwilioChannel sends SMS through the Twilio REST API.
type TwilioChannel struct {
	api  messageCreator
	from string
}

func NewTwilioChannel(cfg TwilioConfig) (*TwilioChannel, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: twilio requires account sid, auth token and from number", ErrNotConfigured)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioChannel{api: client.Api, from: cfg.From}, nil
}

type twilioResult struct {
	msg *twilioApi.ApiV2010Message
	err error
}

// Send creates the message. The Twilio client takes no context, so the call
// runs in a goroutine and Send returns early if ctx is done first.
func (c *TwilioChannel) Send(ctx context.Context, phone, message string) (Receipt, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(c.from)
	params.SetBody(message)

	done := make(chan twilioResult, 1)
	go func() {
		msg, err := c.api.CreateMessage(params)
		done <- twilioResult{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return Receipt{}, fmt.Errorf("twilio: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return Receipt{}, fmt.Errorf("twilio: create message: %w", res.err)
		}
		receipt := Receipt{Provider: "twilio"}
		if res.msg != nil && res.msg.Sid != nil {
			receipt.MessageID = *res.msg.Sid
		}
		return receipt, nil
	}
}
