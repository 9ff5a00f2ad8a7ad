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

type joinRequestRepository struct {
	BaseRepository
}

func NewJoinRequestRepository(base BaseRepository) repository.JoinRequestRepository {
	return &joinRequestRepository{base}
}

// Create relies on the partial unique index over (practice_id, user_id)
// where status = 'pending'; a duplicate pending request surfaces as
// repository.ErrDuplicate.
func (r *joinRequestRepository) Create(ctx context.Context, request *model.JoinRequest) error {
	query := `
		INSERT INTO practice_join_requests (
			id, practice_id, user_id, requested_role, message, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	request.ID = uuid.New()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		request.ID,
		request.PracticeID,
		request.UserID,
		request.RequestedRole,
		request.Message,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err := mapError(err); err != nil {
		return fmt.Errorf("failed to create join request: %w", err)
	}
	return nil
}

func (r *joinRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error) {
	query := `
		SELECT * FROM practice_join_requests
		WHERE id = $1
	`

	var request model.JoinRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, fmt.Errorf("failed to get join request: %w", mapError(err))
	}

	return &request, nil
}

func (r *joinRequestRepository) ListPending(ctx context.Context, practiceID uuid.UUID) ([]*model.JoinRequest, error) {
	query := `
		SELECT * FROM practice_join_requests
		WHERE practice_id = $1 AND status = $2
		ORDER BY created_at ASC
	`

	requests := []*model.JoinRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, practiceID, model.JoinRequestStatusPending); err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", mapError(err))
	}

	return requests, nil
}

func (r *joinRequestRepository) Approve(ctx context.Context, id, deciderID uuid.UUID, staff *model.StaffRecord) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE practice_join_requests SET
				status = $1, decided_by = $2, decided_at = now(), updated_at = now()
			WHERE id = $3 AND status = $4
		`,
			model.JoinRequestStatusApproved,
			deciderID,
			id,
			model.JoinRequestStatusPending,
		)
		if err != nil {
			return fmt.Errorf("failed to approve join request: %w", mapError(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("failed to approve join request: %w", repository.ErrStale)
		}

		staff.ID = uuid.New()
		staff.CreatedAt = time.Now()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO practice_staff (
				id, practice_id, user_id, role, department, status, source, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			staff.ID,
			staff.PracticeID,
			staff.UserID,
			staff.Role,
			staff.Department,
			staff.Status,
			staff.Source,
			staff.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create staff record: %w", mapError(err))
		}
		return nil
	})
}

func (r *joinRequestRepository) Reject(ctx context.Context, id, deciderID uuid.UUID) error {
	query := `
		UPDATE practice_join_requests SET
			status = $1, decided_by = $2, decided_at = now(), updated_at = now()
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		model.JoinRequestStatusRejected,
		deciderID,
		id,
		model.JoinRequestStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to reject join request: %w", mapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to reject join request: %w", repository.ErrStale)
	}

	return nil
}
