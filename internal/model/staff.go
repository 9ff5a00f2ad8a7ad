package model

import (
	"time"

	"github.com/google/uuid"
)

// Staff roles within a practice
const (
	StaffRoleAdmin  = "admin"
	StaffRoleDoctor = "doctor"
	StaffRoleNurse  = "nurse"
	StaffRoleStaff  = "staff"
)

// StaffSource records which of the three provisioning paths created the
// record. Exactly one of them produced any given active staff row.
const (
	StaffSourceOwner       = "owner"
	StaffSourceInvitation  = "invitation"
	StaffSourceJoinRequest = "join_request"
)

const StaffStatusActive = "active"

// StaffRecord links a user to a practice with a role. The active record is
// what grants practice-scoped permissions.
type StaffRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PracticeID uuid.UUID `json:"practice_id" db:"practice_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Role       string    `json:"role" db:"role"`
	Department string    `json:"department" db:"department"`
	Status     string    `json:"status" db:"status"`
	Source     string    `json:"source" db:"source"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ValidStaffRole reports whether role is one a staff record may carry.
func ValidStaffRole(role string) bool {
	switch role {
	case StaffRoleAdmin, StaffRoleDoctor, StaffRoleNurse, StaffRoleStaff:
		return true
	}
	return false
}
