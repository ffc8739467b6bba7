// Package sms delivers confirmation codes by text message.
package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/redmonkez12/todos-api/internal/logging"
)

// ConfirmationMessage is the SMS body carrying a confirmation code.
func ConfirmationMessage(code string) string {
	return fmt.Sprintf("Confirmation code: %s", code)
}

// messageCreator is the part of the Twilio REST API the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends messages through the Twilio Messages API.
type TwilioSender struct {
	api  messageCreator
	from string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{
		api:  client.Api,
		from: from,
	}
}

// SendConfirmationCode sends the code to the given phone number.
// This method is designed to be called in a goroutine
func (s *TwilioSender) SendConfirmationCode(ctx context.Context, to, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(ConfirmationMessage(code))

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	if msg.Sid != nil {
		logger.Info("confirmation sms sent", "sid", *msg.Sid)
	} else {
		logger.Info("confirmation sms sent")
	}
	return nil
}

// LogSender writes codes to the log instead of sending them. It is used
// when no Twilio credentials are configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendConfirmationCode(_ context.Context, to, code string) error {
	s.logger.Info("sms delivery disabled, confirmation code not sent",
		"to", to, "message", ConfirmationMessage(code))
	return nil
}
