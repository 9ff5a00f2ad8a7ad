package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
)

func newMockRepo(t *testing.T) (BaseRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewBaseRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestInvitationAccept(t *testing.T) {
	base, mock := newMockRepo(t)
	repo := NewInvitationRepository(base)

	staff := &model.StaffRecord{
		PracticeID: uuid.New(),
		UserID:     uuid.New(),
		Role:       "nurse",
		Status:     model.StaffStatusActive,
		Source:     model.StaffSourceInvitation,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE practice_invitations").
		WithArgs(model.InvitationStatusAccepted, staff.UserID, "token-1", model.InvitationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO practice_staff").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Accept(context.Background(), "token-1", staff)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationAcceptAlreadyUsed(t *testing.T) {
	base, mock := newMockRepo(t)
	repo := NewInvitationRepository(base)

	staff := &model.StaffRecord{
		PracticeID: uuid.New(),
		UserID:     uuid.New(),
		Role:       "nurse",
		Status:     model.StaffStatusActive,
		Source:     model.StaffSourceInvitation,
	}

	// The guarded update matches nothing once the invitation left pending
	// or expired, so no staff row is ever written.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE practice_invitations").
		WithArgs(model.InvitationStatusAccepted, staff.UserID, "token-1", model.InvitationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), "token-1", staff)
	assert.ErrorIs(t, err, repository.ErrStale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRevokeNotPending(t *testing.T) {
	base, mock := newMockRepo(t)
	repo := NewInvitationRepository(base)

	mock.ExpectExec("UPDATE practice_invitations").
		WithArgs(model.InvitationStatusRevoked, "token-1", model.InvitationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), "token-1")
	assert.ErrorIs(t, err, repository.ErrStale)
}

func TestInvitationExpireOverdue(t *testing.T) {
	base, mock := newMockRepo(t)
	repo := NewInvitationRepository(base)

	mock.ExpectExec("UPDATE practice_invitations").
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := repo.ExpireOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)
}
