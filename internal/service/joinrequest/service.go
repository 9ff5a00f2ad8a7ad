package joinrequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/internal/service/notification"
	"github.com/carebridge/portal-api/internal/service/practice"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
)

type JoinRequestServicer interface {
	Submit(ctx context.Context, practiceID, userID uuid.UUID, req *model.SubmitJoinRequestRequest) (*model.JoinRequest, error)
	ListPending(ctx context.Context, practiceID, actorID uuid.UUID) ([]*model.JoinRequest, error)
	Approve(ctx context.Context, id, deciderID uuid.UUID) error
	Reject(ctx context.Context, id, deciderID uuid.UUID) error
}

type Service struct {
	repo          repository.JoinRequestRepository
	staff         repository.StaffRepository
	practices     practice.PracticeServicer
	notifications notification.NotificationServicer
	logger        *logger.Logger
}

func NewService(
	repo repository.JoinRequestRepository,
	staff repository.StaffRepository,
	practices practice.PracticeServicer,
	notifications notification.NotificationServicer,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		staff:         staff,
		practices:     practices,
		notifications: notifications,
		logger:        logger,
	}
}

// Submit inserts a pending request. The partial unique index keeps at most
// one pending request per (user, practice); the violation comes back as a
// distinct duplicate-request error, not a generic failure.
func (s *Service) Submit(ctx context.Context, practiceID, userID uuid.UUID, req *model.SubmitJoinRequestRequest) (*model.JoinRequest, error) {
	// Validate the practice exists before inserting.
	prac, err := s.practices.Get(ctx, practiceID)
	if err != nil {
		return nil, err
	}

	if _, err := s.staff.GetActive(ctx, practiceID, userID); err == nil {
		return nil, apperrors.Conflict("you are already a member of this practice", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	request := &model.JoinRequest{
		PracticeID:    practiceID,
		UserID:        userID,
		RequestedRole: req.Role,
		Message:       req.Message,
		Status:        model.JoinRequestStatusPending,
	}

	if err := s.repo.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("you have already requested to join this practice", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.notifyAdmins(ctx, prac, request)
	return request, nil
}

func (s *Service) notifyAdmins(ctx context.Context, prac *model.Practice, request *model.JoinRequest) {
	admins, err := s.staff.ListAdmins(ctx, prac.ID)
	if err != nil {
		s.logger.Error(err, "failed to list admins for join request notification",
			"practice_id", prac.ID.String())
		return
	}

	for _, admin := range admins {
		err := s.notifications.Notify(ctx, &model.Notification{
			UserID:  admin.UserID,
			Type:    model.NotificationTypeJoinRequestReceived,
			Title:   "New join request",
			Message: fmt.Sprintf("A user requested to join %s as %s", prac.Name, request.RequestedRole),
			Link:    fmt.Sprintf("/practices/%s/join-requests", prac.ID),
		})
		if err != nil {
			s.logger.Error(err, "failed to notify admin of join request",
				"request_id", request.ID.String())
		}
	}
}

func (s *Service) ListPending(ctx context.Context, practiceID, actorID uuid.UUID) ([]*model.JoinRequest, error) {
	admin, err := s.practices.IsAdmin(ctx, practiceID, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.Forbidden("only practice admins can list join requests", nil)
	}

	requests, err := s.repo.ListPending(ctx, practiceID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return requests, nil
}

func (s *Service) Approve(ctx context.Context, id, deciderID uuid.UUID) error {
	request, err := s.authorizeDecision(ctx, id, deciderID)
	if err != nil {
		return err
	}

	staff := &model.StaffRecord{
		PracticeID: request.PracticeID,
		UserID:     request.UserID,
		Role:       request.RequestedRole,
		Status:     model.StaffStatusActive,
		Source:     model.StaffSourceJoinRequest,
	}

	if err := s.repo.Approve(ctx, id, deciderID, staff); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return apperrors.Conflict("join request has already been decided", err)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("user is already a member of this practice", err)
		}
		return apperrors.Internal(err)
	}

	s.notifyRequester(ctx, request, "approved")
	return nil
}

func (s *Service) Reject(ctx context.Context, id, deciderID uuid.UUID) error {
	request, err := s.authorizeDecision(ctx, id, deciderID)
	if err != nil {
		return err
	}

	if err := s.repo.Reject(ctx, id, deciderID); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return apperrors.Conflict("join request has already been decided", err)
		}
		return apperrors.Internal(err)
	}

	s.notifyRequester(ctx, request, "rejected")
	return nil
}

func (s *Service) authorizeDecision(ctx context.Context, id, deciderID uuid.UUID) (*model.JoinRequest, error) {
	request, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("join request", err)
		}
		return nil, apperrors.Internal(err)
	}

	admin, err := s.practices.IsAdmin(ctx, request.PracticeID, deciderID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.Forbidden("only practice admins can decide join requests", nil)
	}

	return request, nil
}

func (s *Service) notifyRequester(ctx context.Context, request *model.JoinRequest, decision string) {
	err := s.notifications.Notify(ctx, &model.Notification{
		UserID:  request.UserID,
		Type:    model.NotificationTypeJoinRequestDecided,
		Title:   "Join request " + decision,
		Message: fmt.Sprintf("Your request to join the practice was %s", decision),
		Link:    fmt.Sprintf("/practices/%s", request.PracticeID),
	})
	if err != nil {
		s.logger.Error(err, "failed to notify requester of decision",
			"request_id", request.ID.String())
	}
}
