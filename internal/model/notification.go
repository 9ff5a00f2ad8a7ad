package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types raised by the portal's own flows.
const (
	NotificationTypeInvitationAccepted  = "invitation_accepted"
	NotificationTypeJoinRequestReceived = "join_request_received"
	NotificationTypeJoinRequestDecided  = "join_request_decided"
)

// Notification is one row of a user's feed. Only the recipient flips the
// read flag; everything else is written by server-side flows.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Link      string    `json:"link" db:"link"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NotificationFeed is the initial feed payload: the most recent rows plus
// the database-confirmed unread count.
type NotificationFeed struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
}
