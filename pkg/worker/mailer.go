package worker

import (
	"context"
	"encoding/json"

	"github.com/carebridge/portal-api/internal/email"
	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/messaging"
)

// InvitationMailer consumes invitation-created events off the broker and
// sends the acceptance email. Send failures are logged and dropped; the
// invitation itself stays valid and can be re-sent by creating a new one.
type InvitationMailer struct {
	broker messaging.Broker
	sender email.Service
	logger *logger.Logger
}

func NewInvitationMailer(broker messaging.Broker, sender email.Service, log *logger.Logger) *InvitationMailer {
	return &InvitationMailer{
		broker: broker,
		sender: sender,
		logger: log,
	}
}

func (m *InvitationMailer) Run(ctx context.Context) error {
	messages, err := m.broker.Subscribe(ctx, model.EventInvitationCreated)
	if err != nil {
		return err
	}

	m.logger.Info("invitation mailer started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("invitation mailer stopped")
			return nil
		case payload, ok := <-messages:
			if !ok {
				m.logger.Info("invitation mailer stopped")
				return nil
			}
			m.handle(ctx, payload)
		}
	}
}

func (m *InvitationMailer) handle(ctx context.Context, payload []byte) {
	var invite model.InvitationEmail
	if err := json.Unmarshal(payload, &invite); err != nil {
		m.logger.Error(err, "dropping malformed invitation email event")
		return
	}

	if err := m.sender.SendInvitation(ctx, invite); err != nil {
		m.logger.Error(err, "failed to send invitation email", "to", invite.Email)
		return
	}

	m.logger.Info("invitation email sent", "to", invite.Email)
}
