package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/realtime"
)

// FeedSize is how many rows the initial feed fetch returns.
const FeedSize = 10

// ChangeTable is the realtime table name notification inserts publish under.
const ChangeTable = "notifications"

type NotificationServicer interface {
	Feed(ctx context.Context, userID uuid.UUID) (*model.NotificationFeed, error)
	// MarkRead flips the row and returns the confirmed unread count. A
	// repeat call on an already-read row succeeds without changing the
	// count.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (int, error)
	// Notify persists a notification and publishes the insert to the
	// recipient's change feed.
	Notify(ctx context.Context, notification *model.Notification) error
}

type Service struct {
	repo   repository.NotificationRepository
	hub    *realtime.Hub
	logger *logger.Logger
}

func NewService(repo repository.NotificationRepository, hub *realtime.Hub, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		hub:    hub,
		logger: logger,
	}
}

func (s *Service) Feed(ctx context.Context, userID uuid.UUID) (*model.NotificationFeed, error) {
	notifications, err := s.repo.ListRecent(ctx, userID, FeedSize)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.NotificationFeed{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (int, error) {
	updated, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}

	if !updated {
		// Nothing flipped: either the row is already read (fine, idempotent)
		// or it does not belong to this user at all.
		notification, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, apperrors.NotFound("notification", err)
			}
			return 0, apperrors.Internal(err)
		}
		if notification.UserID != userID {
			return 0, apperrors.NotFound("notification", nil)
		}
	}

	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return unread, nil
}

func (s *Service) Notify(ctx context.Context, notification *model.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return apperrors.Internal(err)
	}

	if err := s.hub.Publish(ctx, ChangeTable, notification.UserID.String(), "insert", notification); err != nil {
		// Delivery to live viewers is best-effort; the row is persisted and
		// shows up on the next feed fetch.
		s.logger.Error(err, "failed to publish notification insert",
			"notification_id", notification.ID.String())
	}

	return nil
}
