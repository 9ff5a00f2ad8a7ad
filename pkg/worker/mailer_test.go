package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/pkg/logger"
)

type fakeSender struct {
	sent []model.InvitationEmail
	err  error
}

func (f *fakeSender) SendInvitation(ctx context.Context, invite model.InvitationEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, invite)
	return nil
}

func (f *fakeSender) SendCustom(ctx context.Context, to, subject, content string) error {
	return nil
}

func TestMailerSendsInvitation(t *testing.T) {
	sender := &fakeSender{}
	m := NewInvitationMailer(newRecordingBroker(), sender, logger.NewLogger(nil))

	m.handle(context.Background(), []byte(`{
		"email": "nurse@example.com",
		"role": "nurse",
		"practice_name": "Lakeside Family Medicine",
		"accept_url": "https://portal.example/accept-invitation?token=t"
	}`))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "nurse@example.com", sender.sent[0].Email)
	assert.Equal(t, "https://portal.example/accept-invitation?token=t", sender.sent[0].AcceptURL)
}

func TestMailerDropsMalformedPayload(t *testing.T) {
	sender := &fakeSender{}
	m := NewInvitationMailer(newRecordingBroker(), sender, logger.NewLogger(nil))

	m.handle(context.Background(), []byte(`not json`))
	assert.Empty(t, sender.sent)
}

func TestMailerSurvivesSendFailure(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	m := NewInvitationMailer(newRecordingBroker(), sender, logger.NewLogger(nil))

	m.handle(context.Background(), []byte(`{"email": "nurse@example.com"}`))
	assert.Empty(t, sender.sent)
}
