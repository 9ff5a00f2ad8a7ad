package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

func (r *doctorRepository) Upsert(ctx context.Context, profile *model.DoctorProfile) error {
	query := `
		INSERT INTO doctor_profiles (
			id, user_id, specialty, license_number, availability_status,
			working_hours, bio, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			specialty = EXCLUDED.specialty,
			license_number = EXCLUDED.license_number,
			working_hours = EXCLUDED.working_hours,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at
	`

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.AvailabilityStatus == "" {
		profile.AvailabilityStatus = model.AvailabilityActive
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Specialty,
		profile.LicenseNumber,
		profile.AvailabilityStatus,
		profile.WorkingHours,
		profile.Bio,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err := mapError(err); err != nil {
		return fmt.Errorf("failed to upsert doctor profile: %w", err)
	}
	return nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	query := `
		SELECT * FROM doctor_profiles
		WHERE user_id = $1
	`

	var profile model.DoctorProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get doctor profile: %w", mapError(err))
	}

	return &profile, nil
}

func (r *doctorRepository) UpdateAvailability(ctx context.Context, userID uuid.UUID, status string) (*model.DoctorProfile, error) {
	query := `
		UPDATE doctor_profiles SET
			availability_status = $1, updated_at = now()
		WHERE user_id = $2
		RETURNING id, user_id, specialty, license_number, availability_status,
			working_hours, bio, created_at, updated_at
	`

	var profile model.DoctorProfile
	if err := r.db.GetContext(ctx, &profile, query, status, userID); err != nil {
		return nil, fmt.Errorf("failed to update availability: %w", mapError(err))
	}

	return &profile, nil
}
