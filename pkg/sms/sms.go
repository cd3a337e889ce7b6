package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Provider delivers a text message to a phone number.
type Provider interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioProvider sends messages through the Twilio REST API.
type TwilioProvider struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioProvider builds a provider from account credentials.
func NewTwilioProvider(accountSID, authToken, from string) (*TwilioProvider, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("twilio credentials incomplete")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{client: client, from: from}, nil
}

// Send delivers the message, returning the provider error unwrapped so
// callers can distinguish delivery failures.
func (p *TwilioProvider) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetBody(body)

	if _, err := p.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}

// LogProvider writes messages to the log instead of sending them. Used
// in development and tests where no Twilio account is configured.
type LogProvider struct {
	logger *zap.Logger
}

// NewLogProvider builds a provider that only logs.
func NewLogProvider(logger *zap.Logger) *LogProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogProvider{logger: logger}
}

// Send logs the message and reports success.
func (p *LogProvider) Send(ctx context.Context, to, body string) error {
	p.logger.Info("sms suppressed (log provider)", zap.String("to", to), zap.String("body", body))
	return nil
}
