// Package store provides the session-scoped message store: one contract,
// two interchangeable implementations. The networked variant persists to
// postgres; the local variant keeps one serialized collection per session
// key on disk. Both enforce the same validation and ordering rules so the
// conversation layer can swap them freely.
package store

import (
	"context"
	"strings"

	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/pkg/errors"
)

// MessageStore is the contract shared by the local and networked variants.
type MessageStore interface {
	// ListMessages returns all messages for the session ordered by timestamp
	// ascending, ties broken by insertion order. An unknown or empty session
	// yields an empty slice, not an error.
	ListMessages(ctx context.Context, sessionID string) ([]models.Message, error)

	// CreateMessage validates the input, assigns a fresh id and creation
	// timestamp, appends the message to its session and returns the
	// persisted message including generated fields.
	CreateMessage(ctx context.Context, in NewMessage) (models.Message, error)

	// ClearSession removes every message for the session. Clearing an empty
	// or nonexistent session succeeds silently.
	ClearSession(ctx context.Context, sessionID string) error
}

// NewMessage carries the caller-supplied fields of a message to be created.
type NewMessage struct {
	Content   string `json:"content"`
	Role      string `json:"role"`
	Model     string `json:"model"`
	SessionID string `json:"sessionId"`
}

// FieldError describes a single invalid field for structured 400 responses.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the required fields. It rejects before any mutation so a
// failed create never leaves a partial write behind.
func (n NewMessage) Validate() error {
	var fields []FieldError

	if strings.TrimSpace(n.Content) == "" {
		fields = append(fields, FieldError{Field: "content", Message: "content must not be empty"})
	}
	if n.Role == "" {
		fields = append(fields, FieldError{Field: "role", Message: "role is required"})
	} else if !models.ValidRole(n.Role) {
		fields = append(fields, FieldError{Field: "role", Message: "role must be \"user\" or \"assistant\""})
	}
	if n.Model == "" {
		fields = append(fields, FieldError{Field: "model", Message: "model is required"})
	}
	if n.SessionID == "" {
		fields = append(fields, FieldError{Field: "sessionId", Message: "sessionId is required"})
	}

	if len(fields) > 0 {
		return errors.NewValidationError("invalid message", fields)
	}
	return nil
}
