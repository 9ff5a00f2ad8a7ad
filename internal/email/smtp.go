package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/carebridge/portal-api/internal/model"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService builds the SMTP-backed sender.
func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendInvitation(ctx context.Context, invite model.InvitationEmail) error {
	subject := fmt.Sprintf("You've been invited to join %s", invite.PracticeName)
	body := fmt.Sprintf(`
		<p>You have been invited to join <strong>%s</strong> as a %s.</p>
		<p><a href="%s">Accept the invitation</a></p>
		<p>This invitation expires in 7 days.</p>`,
		invite.PracticeName, invite.Role, invite.AcceptURL)

	return s.send(ctx, invite.Email, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
