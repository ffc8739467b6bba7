package sms

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/redmonkez12/todos-api/internal/logging"
)

type fakeMessages struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeMessages) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestConfirmationMessage(t *testing.T) {
	assert.Equal(t, "Confirmation code: a1b2c3", ConfirmationMessage("a1b2c3"))
}

func TestTwilioSender_SendConfirmationCode(t *testing.T) {
	fake := &fakeMessages{}
	sender := &TwilioSender{api: fake, from: "+15550000000"}

	require.NoError(t, sender.SendConfirmationCode(context.Background(), "+12223334455", "a1b2c3"))
	require.Len(t, fake.params, 1)

	p := fake.params[0]
	require.NotNil(t, p.To)
	require.NotNil(t, p.From)
	require.NotNil(t, p.Body)
	assert.Equal(t, "+12223334455", *p.To)
	assert.Equal(t, "+15550000000", *p.From)
	assert.Equal(t, "Confirmation code: a1b2c3", *p.Body)
}

func TestTwilioSender_Errors(t *testing.T) {
	fake := &fakeMessages{err: errors.New("twilio down")}
	sender := &TwilioSender{api: fake, from: "+15550000000"}

	err := sender.SendConfirmationCode(context.Background(), "+12223334455", "a1b2c3")
	assert.ErrorContains(t, err, "twilio down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sender.SendConfirmationCode(ctx, "+12223334455", "a1b2c3")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.params, 1, "cancelled send does not reach the API")
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(logging.New(&buf, false))

	require.NoError(t, sender.SendConfirmationCode(context.Background(), "+12223334455", "a1b2c3"))
	assert.Contains(t, buf.String(), "Confirmation code: a1b2c3")
	assert.Contains(t, buf.String(), "+12223334455")
}
