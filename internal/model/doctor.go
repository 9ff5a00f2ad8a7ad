package model

import (
	"time"

	"github.com/google/uuid"
)

// Availability statuses mirrored live to patient-facing views.
const (
	AvailabilityActive = "active"
	AvailabilityAway   = "away"
)

// DoctorProfile holds a doctor's practice-facing details and availability.
type DoctorProfile struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	Specialty          string    `json:"specialty" db:"specialty"`
	LicenseNumber      string    `json:"license_number" db:"license_number"`
	AvailabilityStatus string    `json:"availability_status" db:"availability_status"`
	WorkingHours       JSONMap   `json:"working_hours" db:"working_hours"`
	Bio                string    `json:"bio" db:"bio"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertDoctorProfileRequest represents profile creation/update parameters
type UpsertDoctorProfileRequest struct {
	Specialty     string  `json:"specialty" binding:"required"`
	LicenseNumber string  `json:"license_number" binding:"required"`
	WorkingHours  JSONMap `json:"working_hours"`
	Bio           string  `json:"bio" binding:"max=2000"`
}

// SetAvailabilityRequest represents an availability toggle
type SetAvailabilityRequest struct {
	Status string `json:"status" binding:"required,oneof=active away"`
}

// ValidAvailability reports whether status is a recognized availability value.
func ValidAvailability(status string) bool {
	return status == AvailabilityActive || status == AvailabilityAway
}
