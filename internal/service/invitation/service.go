package invitation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/internal/service/notification"
	"github.com/carebridge/portal-api/internal/service/practice"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
)

// CreateResult reports the invitation and whether the email was queued.
// Email delivery is best-effort: a queueing failure degrades the response
// but never fails the creation itself.
type CreateResult struct {
	Invitation  *model.Invitation `json:"invitation"`
	EmailQueued bool              `json:"email_queued"`
}

type InvitationServicer interface {
	Create(ctx context.Context, practiceID, inviterID uuid.UUID, req *model.CreateInvitationRequest) (*CreateResult, error)
	Get(ctx context.Context, token string) (*model.InvitationView, error)
	Accept(ctx context.Context, token string, userID uuid.UUID, userEmail string) error
	Revoke(ctx context.Context, token string, actorID uuid.UUID) error
	ListByPractice(ctx context.Context, practiceID, actorID uuid.UUID) ([]*model.Invitation, error)
}

type Service struct {
	repo          repository.InvitationRepository
	practices     practice.PracticeServicer
	outbox        repository.OutboxRepository
	notifications notification.NotificationServicer
	siteURL       string
	logger        *logger.Logger
	now           func() time.Time
}

func NewService(
	repo repository.InvitationRepository,
	practices practice.PracticeServicer,
	outbox repository.OutboxRepository,
	notifications notification.NotificationServicer,
	siteURL string,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		practices:     practices,
		outbox:        outbox,
		notifications: notifications,
		siteURL:       strings.TrimRight(siteURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

func (s *Service) Create(ctx context.Context, practiceID, inviterID uuid.UUID, req *model.CreateInvitationRequest) (*CreateResult, error) {
	admin, err := s.practices.IsAdmin(ctx, practiceID, inviterID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.Forbidden("only practice admins can invite staff", nil)
	}

	prac, err := s.practices.Get(ctx, practiceID)
	if err != nil {
		return nil, err
	}

	invitation := &model.Invitation{
		PracticeID: practiceID,
		InviterID:  inviterID,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Role:       req.Role,
		Department: req.Department,
		Token:      uuid.NewString(),
		Status:     model.InvitationStatusPending,
		ExpiresAt:  s.now().Add(model.InvitationTTL),
	}

	if err := s.repo.Create(ctx, invitation); err != nil {
		return nil, apperrors.Internal(err)
	}

	result := &CreateResult{Invitation: invitation, EmailQueued: true}
	if err := s.queueEmail(ctx, invitation, prac); err != nil {
		s.logger.Error(err, "failed to queue invitation email",
			"invitation_id", invitation.ID.String())
		result.EmailQueued = false
	}

	return result, nil
}

func (s *Service) queueEmail(ctx context.Context, invitation *model.Invitation, prac *model.Practice) error {
	payload, err := json.Marshal(model.InvitationEmail{
		Email:        invitation.Email,
		Role:         invitation.Role,
		Department:   invitation.Department,
		PracticeID:   invitation.PracticeID.String(),
		PracticeName: prac.Name,
		AcceptURL:    fmt.Sprintf("%s/accept-invitation?token=%s", s.siteURL, invitation.Token),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal invitation email: %w", err)
	}

	return s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: model.EventInvitationCreated,
		Payload:   payload,
	})
}

// Get resolves the public view for the acceptance page. The invited email
// comes back masked; the full address is only ever compared server-side.
func (s *Service) Get(ctx context.Context, token string) (*model.InvitationView, error) {
	invitation, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("invitation", err)
		}
		return nil, apperrors.Internal(err)
	}

	if invitation.Status == model.InvitationStatusPending && invitation.ExpiredAt(s.now()) {
		return nil, apperrors.Unprocessable("invitation has expired", nil)
	}

	prac, err := s.practices.Get(ctx, invitation.PracticeID)
	if err != nil {
		return nil, err
	}

	return &model.InvitationView{
		PracticeID:   invitation.PracticeID,
		PracticeName: prac.Name,
		Email:        maskEmail(invitation.Email),
		Role:         invitation.Role,
		Department:   invitation.Department,
		Status:       invitation.Status,
		ExpiresAt:    invitation.ExpiresAt,
	}, nil
}

// maskEmail keeps the first character of the local part and the full domain.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// Accept provisions the staff record for the invited user. Expiry and
// single-use are checked here and enforced again by the guarded update in
// the repository, so a racing second acceptance still fails closed.
func (s *Service) Accept(ctx context.Context, token string, userID uuid.UUID, userEmail string) error {
	invitation, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("invitation", err)
		}
		return apperrors.Internal(err)
	}

	if invitation.Status != model.InvitationStatusPending {
		return apperrors.Conflict("invitation has already been used or revoked", nil)
	}
	if invitation.ExpiredAt(s.now()) {
		return apperrors.Unprocessable("invitation has expired", nil)
	}
	if !strings.EqualFold(invitation.Email, userEmail) {
		return apperrors.Forbidden("invitation was issued to a different email address", nil)
	}

	staff := &model.StaffRecord{
		PracticeID: invitation.PracticeID,
		UserID:     userID,
		Role:       invitation.Role,
		Department: invitation.Department,
		Status:     model.StaffStatusActive,
		Source:     model.StaffSourceInvitation,
	}

	if err := s.repo.Accept(ctx, token, staff); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return apperrors.Conflict("invitation has already been used or revoked", err)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("you are already a member of this practice", err)
		}
		return apperrors.Internal(err)
	}

	s.notifyInviter(ctx, invitation, userEmail)
	return nil
}

func (s *Service) notifyInviter(ctx context.Context, invitation *model.Invitation, acceptedBy string) {
	err := s.notifications.Notify(ctx, &model.Notification{
		UserID:  invitation.InviterID,
		Type:    model.NotificationTypeInvitationAccepted,
		Title:   "Invitation accepted",
		Message: fmt.Sprintf("%s accepted your invitation to join as %s", acceptedBy, invitation.Role),
		Link:    fmt.Sprintf("/practices/%s/staff", invitation.PracticeID),
	})
	if err != nil {
		s.logger.Error(err, "failed to notify inviter",
			"invitation_id", invitation.ID.String())
	}
}

func (s *Service) Revoke(ctx context.Context, token string, actorID uuid.UUID) error {
	invitation, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("invitation", err)
		}
		return apperrors.Internal(err)
	}

	if invitation.InviterID != actorID {
		admin, err := s.practices.IsAdmin(ctx, invitation.PracticeID, actorID)
		if err != nil {
			return err
		}
		if !admin {
			return apperrors.Forbidden("only the inviter or a practice admin can revoke an invitation", nil)
		}
	}

	if err := s.repo.Revoke(ctx, token); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return apperrors.Conflict("invitation is no longer pending", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) ListByPractice(ctx context.Context, practiceID, actorID uuid.UUID) ([]*model.Invitation, error) {
	admin, err := s.practices.IsAdmin(ctx, practiceID, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.Forbidden("only practice admins can list invitations", nil)
	}

	invitations, err := s.repo.ListByPractice(ctx, practiceID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return invitations, nil
}
