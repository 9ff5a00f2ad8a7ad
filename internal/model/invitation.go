package model

import (
	"time"

	"github.com/google/uuid"
)

// InvitationTTL is how long an invitation stays acceptable.
const InvitationTTL = 7 * 24 * time.Hour

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusExpired  InvitationStatus = "expired"
	InvitationStatusRevoked  InvitationStatus = "revoked"
)

// Invitation is a time-boxed, single-use token inviting a specific email to
// a practice with a role.
type Invitation struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	PracticeID uuid.UUID        `json:"practice_id" db:"practice_id"`
	InviterID  uuid.UUID        `json:"inviter_id" db:"inviter_id"`
	Email      string           `json:"email" db:"email"`
	Role       string           `json:"role" db:"role"`
	Department string           `json:"department" db:"department"`
	Token      string           `json:"token" db:"token"`
	Status     InvitationStatus `json:"status" db:"status"`
	ExpiresAt  time.Time        `json:"expires_at" db:"expires_at"`
	AcceptedBy *uuid.UUID       `json:"accepted_by,omitempty" db:"accepted_by"`
	AcceptedAt *time.Time       `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// ExpiredAt reports whether the invitation is past its expiry at the given
// instant, regardless of its stored status.
func (i *Invitation) ExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// InvitationView is the public shape served to the acceptance page before
// sign-in. The invited address is masked and the token never echoes back.
type InvitationView struct {
	PracticeID   uuid.UUID        `json:"practice_id"`
	PracticeName string           `json:"practice_name"`
	Email        string           `json:"email"`
	Role         string           `json:"role"`
	Department   string           `json:"department,omitempty"`
	Status       InvitationStatus `json:"status"`
	ExpiresAt    time.Time        `json:"expires_at"`
}

// CreateInvitationRequest represents invitation creation parameters
type CreateInvitationRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Role       string `json:"role" binding:"required,oneof=admin doctor nurse staff"`
	Department string `json:"department"`
}

// InvitationEmail is the payload handed to the mailer for an invitation.
type InvitationEmail struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	Department   string `json:"department,omitempty"`
	PracticeID   string `json:"practice_id"`
	PracticeName string `json:"practice_name"`
	AcceptURL    string `json:"accept_url"`
}
