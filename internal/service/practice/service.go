package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type PracticeServicer interface {
	Create(ctx context.Context, req *model.CreatePracticeRequest, ownerID uuid.UUID) (*model.Practice, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Practice, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdatePracticeRequest, actorID uuid.UUID) (*model.Practice, error)
	List(ctx context.Context, search string) ([]*model.Practice, error)
	ListStaff(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffRecord, error)
	// IsAdmin reports whether userID holds an active admin staff record.
	IsAdmin(ctx context.Context, practiceID, userID uuid.UUID) (bool, error)
}

type Service struct {
	repo   repository.PracticeRepository
	staff  repository.StaffRepository
	cache  *cache.Cache
	logger *logger.Logger
}

func NewService(repo repository.PracticeRepository, staff repository.StaffRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		staff:  staff,
		cache:  cache.New(cacheTTL, cacheCleanup),
		logger: logger,
	}
}

// Create provisions the practice and the creator's admin staff record in one
// transaction, the owner-elected onboarding path.
func (s *Service) Create(ctx context.Context, req *model.CreatePracticeRequest, ownerID uuid.UUID) (*model.Practice, error) {
	practice := &model.Practice{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Status:  "active",
	}

	owner := &model.StaffRecord{
		UserID: ownerID,
		Role:   model.StaffRoleAdmin,
		Status: model.StaffStatusActive,
		Source: model.StaffSourceOwner,
	}

	if err := s.repo.CreateWithOwner(ctx, practice, owner); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create practice: %w", err))
	}

	s.logger.Info("practice created", "practice_id", practice.ID.String(), "owner_id", ownerID.String())
	return practice, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Practice, error) {
	if cached, found := s.cache.Get(id.String()); found {
		return cached.(*model.Practice), nil
	}

	practice, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("practice", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.SetDefault(id.String(), practice)
	return practice, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePracticeRequest, actorID uuid.UUID) (*model.Practice, error) {
	admin, err := s.IsAdmin(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.Forbidden("only practice admins can update the practice", nil)
	}

	practice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *practice
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Address != nil {
		updated.Address = *req.Address
	}
	if req.Phone != nil {
		updated.Phone = *req.Phone
	}
	if req.Email != nil {
		updated.Email = *req.Email
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("practice", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Delete(id.String())
	return &updated, nil
}

func (s *Service) List(ctx context.Context, search string) ([]*model.Practice, error) {
	practices, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return practices, nil
}

func (s *Service) ListStaff(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffRecord, error) {
	staff, err := s.staff.ListByPractice(ctx, practiceID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return staff, nil
}

func (s *Service) IsAdmin(ctx context.Context, practiceID, userID uuid.UUID) (bool, error) {
	record, err := s.staff.GetActive(ctx, practiceID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Internal(err)
	}
	return record.Role == model.StaffRoleAdmin, nil
}
