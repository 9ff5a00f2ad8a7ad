package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
)

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

func (r *staffRepository) GetActive(ctx context.Context, practiceID, userID uuid.UUID) (*model.StaffRecord, error) {
	query := `
		SELECT * FROM practice_staff
		WHERE practice_id = $1 AND user_id = $2 AND status = $3
	`

	var staff model.StaffRecord
	if err := r.db.GetContext(ctx, &staff, query, practiceID, userID, model.StaffStatusActive); err != nil {
		return nil, fmt.Errorf("failed to get staff record: %w", mapError(err))
	}

	return &staff, nil
}

func (r *staffRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffRecord, error) {
	query := `
		SELECT * FROM practice_staff
		WHERE practice_id = $1 AND status = $2
		ORDER BY created_at ASC
	`

	staff := []*model.StaffRecord{}
	if err := r.db.SelectContext(ctx, &staff, query, practiceID, model.StaffStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", mapError(err))
	}

	return staff, nil
}

func (r *staffRepository) ListAdmins(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffRecord, error) {
	query := `
		SELECT * FROM practice_staff
		WHERE practice_id = $1 AND role = $2 AND status = $3
	`

	staff := []*model.StaffRecord{}
	if err := r.db.SelectContext(ctx, &staff, query, practiceID, model.StaffRoleAdmin, model.StaffStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list practice admins: %w", mapError(err))
	}

	return staff, nil
}
