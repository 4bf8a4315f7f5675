package models

import (
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation. Messages are
// immutable after creation; there is no update path, only create,
// list and clear-session.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Content   string    `json:"content" gorm:"not null"`
	Role      string    `json:"role" gorm:"not null"`
	Model     string    `json:"model" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
	SessionID string    `json:"sessionId" gorm:"column:session_id;index;not null"`

	// Seq breaks ordering ties between messages created within the same
	// timestamp granularity. Assigned by the store, never exposed over the API.
	Seq int64 `json:"-" gorm:"autoIncrement;uniqueIndex"`
}

// ValidRole reports whether role is one of the supported message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
