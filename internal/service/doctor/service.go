package doctor

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

// ChangeTable is the realtime table name availability changes publish under,
// keyed by the doctor's user id.
const ChangeTable = "doctor_status"

type DoctorServicer interface {
	Upsert(ctx context.Context, userID uuid.UUID, req *model.UpsertDoctorProfileRequest) (*model.DoctorProfile, error)
	Get(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
	// SetAvailability writes the new status and returns the stored row. The
	// change event is published only after the write is confirmed, so
	// viewers never see a value the database does not hold.
	SetAvailability(ctx context.Context, userID uuid.UUID, status string) (*model.DoctorProfile, error)
}

type Service struct {
	repo   repository.DoctorRepository
	hub    *realtime.Hub
	logger *logger.Logger
}

func NewService(repo repository.DoctorRepository, hub *realtime.Hub, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		hub:    hub,
		logger: logger,
	}
}

func (s *Service) Upsert(ctx context.Context, userID uuid.UUID, req *model.UpsertDoctorProfileRequest) (*model.DoctorProfile, error) {
	profile := &model.DoctorProfile{
		UserID:        userID,
		Specialty:     req.Specialty,
		LicenseNumber: req.LicenseNumber,
		WorkingHours:  req.WorkingHours,
		Bio:           req.Bio,
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.Get(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor profile", err)
		}
		return nil, apperrors.Internal(err)
	}
	return profile, nil
}

func (s *Service) SetAvailability(ctx context.Context, userID uuid.UUID, status string) (*model.DoctorProfile, error) {
	if !model.ValidAvailability(status) {
		return nil, apperrors.BadRequest("availability status must be active or away", nil)
	}

	profile, err := s.repo.UpdateAvailability(ctx, userID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor profile", err)
		}
		return nil, apperrors.Internal(err)
	}

	change := map[string]string{
		"doctor_id":           userID.String(),
		"availability_status": profile.AvailabilityStatus,
	}
	if err := s.hub.Publish(ctx, ChangeTable, userID.String(), "update", change); err != nil {
		// Viewers catch up on their next initial fetch; the write stands.
		s.logger.Error(err, "failed to publish availability change",
			"doctor_id", userID.String())
	}

	return profile, nil
}
