package model

// Practice represents a medical practice. Practices are never hard-deleted;
// deactivation is a status change.
type Practice struct {
	Base
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
	Phone   string `json:"phone" db:"phone"`
	Email   string `json:"email" db:"email"`
	Status  string `json:"status" db:"status"`
}

// CreatePracticeRequest represents practice creation parameters
type CreatePracticeRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
}

// UpdatePracticeRequest represents practice update parameters
type UpdatePracticeRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Status  *string `json:"status" binding:"omitempty,oneof=active inactive"`
}
