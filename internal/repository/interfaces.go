package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/portal-api/internal/model"
)

// Sentinel errors surfaced by repositories so services can map driver
// failures to the domain taxonomy without importing database packages.
var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a uniqueness violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned when a guarded update matched no rows, e.g. an
	// invitation that is no longer pending.
	ErrStale = errors.New("record no longer in expected state")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type PracticeRepository interface {
	// CreateWithOwner inserts the practice and the creator's admin staff
	// record in one transaction.
	CreateWithOwner(ctx context.Context, practice *model.Practice, owner *model.StaffRecord) error
	Get(ctx context.Context, id uuid.UUID) (*model.Practice, error)
	Update(ctx context.Context, practice *model.Practice) error
	List(ctx context.Context, search string) ([]*model.Practice, error)
}

type StaffRepository interface {
	GetActive(ctx context.Context, practiceID, userID uuid.UUID) (*model.StaffRecord, error)
	ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffRecord, error)
	ListAdmins(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffRecord, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, invitation *model.Invitation) error
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)
	// Accept flips the invitation to accepted and inserts the staff record
	// in one transaction. The status flip is guarded on pending+unexpired;
	// ErrStale is returned when the guard matches no rows.
	Accept(ctx context.Context, token string, staff *model.StaffRecord) error
	Revoke(ctx context.Context, token string) error
	ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*model.Invitation, error)
	// ExpireOverdue marks pending invitations past expiry as expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type JoinRequestRepository interface {
	Create(ctx context.Context, request *model.JoinRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error)
	ListPending(ctx context.Context, practiceID uuid.UUID) ([]*model.JoinRequest, error)
	// Approve flips the request and inserts the staff record in one
	// transaction; ErrStale when the request is no longer pending.
	Approve(ctx context.Context, id, deciderID uuid.UUID, staff *model.StaffRecord) error
	Reject(ctx context.Context, id, deciderID uuid.UUID) error
}

type DoctorRepository interface {
	Upsert(ctx context.Context, profile *model.DoctorProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
	// UpdateAvailability writes the new status and returns the stored row.
	UpdateAvailability(ctx context.Context, userID uuid.UUID, status string) (*model.DoctorProfile, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	// MarkRead flips the read flag only when the row belongs to userID and
	// is still unread; it reports whether a row was updated.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
}
