package store

import (
	"context"
	"time"

	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore is the networked message store variant backed by a relational
// messages table. Storage failures surface to the caller, unlike the local
// variant's silent recovery.
type GormStore struct {
	db *gorm.DB
}

var _ MessageStore = (*GormStore)(nil)

// NewGormStore creates a message store over the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, errors.NewStorageError(err)
	}
	return messages, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, in NewMessage) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}

	message := models.Message{
		ID:        uuid.NewString(),
		Content:   in.Content,
		Role:      in.Role,
		Model:     in.Model,
		Timestamp: time.Now().UTC(),
		SessionID: in.SessionID,
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return models.Message{}, errors.NewStorageError(err)
	}
	return message, nil
}

func (s *GormStore) ClearSession(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.Message{}).Error
	if err != nil {
		return errors.NewStorageError(err)
	}
	return nil
}
