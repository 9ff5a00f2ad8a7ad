package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
)

type practiceRepository struct {
	BaseRepository
}

func NewPracticeRepository(base BaseRepository) repository.PracticeRepository {
	return &practiceRepository{base}
}

func (r *practiceRepository) CreateWithOwner(ctx context.Context, practice *model.Practice, owner *model.StaffRecord) error {
	practice.ID = uuid.New()
	practice.CreatedAt = time.Now()
	practice.UpdatedAt = time.Now()

	owner.ID = uuid.New()
	owner.PracticeID = practice.ID
	owner.CreatedAt = practice.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO practices (
				id, name, address, phone, email, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			practice.ID,
			practice.Name,
			practice.Address,
			practice.Phone,
			practice.Email,
			practice.Status,
			practice.CreatedAt,
			practice.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create practice: %w", mapError(err))
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO practice_staff (
				id, practice_id, user_id, role, department, status, source, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			owner.ID,
			owner.PracticeID,
			owner.UserID,
			owner.Role,
			owner.Department,
			owner.Status,
			owner.Source,
			owner.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create owner staff record: %w", mapError(err))
		}
		return nil
	})
}

func (r *practiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practice, error) {
	query := `
		SELECT * FROM practices
		WHERE id = $1 AND deleted_at IS NULL
	`

	var practice model.Practice
	if err := r.db.GetContext(ctx, &practice, query, id); err != nil {
		return nil, fmt.Errorf("failed to get practice: %w", mapError(err))
	}

	return &practice, nil
}

func (r *practiceRepository) Update(ctx context.Context, practice *model.Practice) error {
	query := `
		UPDATE practices SET
			name = $1, address = $2, phone = $3, email = $4, status = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		practice.Name,
		practice.Address,
		practice.Phone,
		practice.Email,
		practice.Status,
		time.Now(),
		practice.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update practice: %w", mapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update practice: %w", repository.ErrNotFound)
	}

	return nil
}

func (r *practiceRepository) List(ctx context.Context, search string) ([]*model.Practice, error) {
	query := `
		SELECT * FROM practices
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}

	if search != "" {
		query += " AND name ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name ASC"

	practices := []*model.Practice{}
	if err := r.db.SelectContext(ctx, &practices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list practices: %w", mapError(err))
	}

	return practices, nil
}
