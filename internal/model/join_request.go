package model

import (
	"time"

	"github.com/google/uuid"
)

type JoinRequestStatus string

const (
	JoinRequestStatusPending  JoinRequestStatus = "pending"
	JoinRequestStatusApproved JoinRequestStatus = "approved"
	JoinRequestStatusRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a user-initiated ask to join a practice, subject to admin
// approval. At most one pending request exists per (user, practice) pair.
type JoinRequest struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	PracticeID    uuid.UUID         `json:"practice_id" db:"practice_id"`
	UserID        uuid.UUID         `json:"user_id" db:"user_id"`
	RequestedRole string            `json:"requested_role" db:"requested_role"`
	Message       string            `json:"message" db:"message"`
	Status        JoinRequestStatus `json:"status" db:"status"`
	DecidedBy     *uuid.UUID        `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt     *time.Time        `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// SubmitJoinRequestRequest represents join request submission parameters
type SubmitJoinRequestRequest struct {
	Role    string `json:"role" binding:"required,oneof=admin doctor nurse staff"`
	Message string `json:"message" binding:"max=500"`
}
