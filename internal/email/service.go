package email

import (
	"context"

	"github.com/carebridge/portal-api/internal/model"
)

// Service sends portal email. Callers treat failures as degradation, never
// as a reason to roll back the write that triggered the send.
type Service interface {
	SendInvitation(ctx context.Context, invite model.InvitationEmail) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}
