package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
)

func TestJoinRequestCreateDuplicatePending(t *testing.T) {
	base, mock := newMockRepo(t)
	repo := NewJoinRequestRepository(base)

	request := &model.JoinRequest{
		PracticeID:    uuid.New(),
		UserID:        uuid.New(),
		RequestedRole: "doctor",
		Status:        model.JoinRequestStatusPending,
	}

	// Second pending request for the same (practice, user) trips the
	// partial unique index.
	mock.ExpectExec("INSERT INTO practice_join_requests").
		WillReturnError(&pq.Error{Code: pq.ErrorCode(uniqueViolation)})

	err := repo.Create(context.Background(), request)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestJoinRequestApprove(t *testing.T) {
	base, mock := newMockRepo(t)
	repo := NewJoinRequestRepository(base)

	id := uuid.New()
	deciderID := uuid.New()
	staff := &model.StaffRecord{
		PracticeID: uuid.New(),
		UserID:     uuid.New(),
		Role:       "doctor",
		Status:     model.StaffStatusActive,
		Source:     model.StaffSourceJoinRequest,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE practice_join_requests").
		WithArgs(model.JoinRequestStatusApproved, deciderID, id, model.JoinRequestStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO practice_staff").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Approve(context.Background(), id, deciderID, staff)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinRequestApproveAlreadyDecided(t *testing.T) {
	base, mock := newMockRepo(t)
	repo := NewJoinRequestRepository(base)

	id := uuid.New()
	deciderID := uuid.New()
	staff := &model.StaffRecord{
		PracticeID: uuid.New(),
		UserID:     uuid.New(),
		Role:       "doctor",
		Status:     model.StaffStatusActive,
		Source:     model.StaffSourceJoinRequest,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE practice_join_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), id, deciderID, staff)
	assert.ErrorIs(t, err, repository.ErrStale)
}
