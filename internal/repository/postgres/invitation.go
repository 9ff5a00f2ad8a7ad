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

type invitationRepository struct {
	BaseRepository
}

func NewInvitationRepository(base BaseRepository) repository.InvitationRepository {
	return &invitationRepository{base}
}

func (r *invitationRepository) Create(ctx context.Context, invitation *model.Invitation) error {
	query := `
		INSERT INTO practice_invitations (
			id, practice_id, inviter_id, email, role, department,
			token, status, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	invitation.ID = uuid.New()
	invitation.CreatedAt = time.Now()
	invitation.UpdatedAt = invitation.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		invitation.ID,
		invitation.PracticeID,
		invitation.InviterID,
		invitation.Email,
		invitation.Role,
		invitation.Department,
		invitation.Token,
		invitation.Status,
		invitation.ExpiresAt,
		invitation.CreatedAt,
		invitation.UpdatedAt,
	)
	if err := mapError(err); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	query := `
		SELECT * FROM practice_invitations
		WHERE token = $1
	`

	var invitation model.Invitation
	if err := r.db.GetContext(ctx, &invitation, query, token); err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", mapError(err))
	}

	return &invitation, nil
}

// Accept is the single-use guarantee: the status flip is a compare-and-set
// on pending+unexpired, and the staff insert rides in the same transaction.
// A second acceptance attempt matches no rows and fails closed.
func (r *invitationRepository) Accept(ctx context.Context, token string, staff *model.StaffRecord) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE practice_invitations SET
				status = $1, accepted_by = $2, accepted_at = now(), updated_at = now()
			WHERE token = $3 AND status = $4 AND expires_at > now()
		`,
			model.InvitationStatusAccepted,
			staff.UserID,
			token,
			model.InvitationStatusPending,
		)
		if err != nil {
			return fmt.Errorf("failed to accept invitation: %w", mapError(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("failed to accept invitation: %w", repository.ErrStale)
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

func (r *invitationRepository) Revoke(ctx context.Context, token string) error {
	query := `
		UPDATE practice_invitations SET
			status = $1, updated_at = now()
		WHERE token = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query,
		model.InvitationStatusRevoked,
		token,
		model.InvitationStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", mapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to revoke invitation: %w", repository.ErrStale)
	}

	return nil
}

func (r *invitationRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*model.Invitation, error) {
	query := `
		SELECT * FROM practice_invitations
		WHERE practice_id = $1
		ORDER BY created_at DESC
	`

	invitations := []*model.Invitation{}
	if err := r.db.SelectContext(ctx, &invitations, query, practiceID); err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", mapError(err))
	}

	return invitations, nil
}

func (r *invitationRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE practice_invitations SET
			status = $1, updated_at = now()
		WHERE status = $2 AND expires_at <= $3
	`

	result, err := r.db.ExecContext(ctx, query,
		model.InvitationStatusExpired,
		model.InvitationStatusPending,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", mapError(err))
	}

	return result.RowsAffected()
}
