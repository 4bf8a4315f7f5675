package store

import (
	"context"
	"encoding/json"
	"time"

	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "chat:messages:"

// CachedStore is a read-through redis cache over a MessageStore. The cache
// is best effort: any redis failure falls back to the inner store and is
// logged, never surfaced. Writes invalidate the session's cached list so the
// ordered view stays consistent with the backing store.
type CachedStore struct {
	inner  MessageStore
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

var _ MessageStore = (*CachedStore)(nil)

// NewCachedStore wraps inner with a redis session cache.
func NewCachedStore(inner MessageStore, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedStore {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl, log: log}
}

// NewRedisClient creates a redis client for the given address.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func (s *CachedStore) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	key := cacheKeyPrefix + sessionID

	if data, err := s.client.Get(ctx, key).Result(); err == nil {
		var messages []models.Message
		if err := json.Unmarshal([]byte(data), &messages); err == nil {
			return messages, nil
		}
		// Unreadable cache entry, fall through to the store
		s.client.Del(ctx, key)
	} else if err != redis.Nil {
		s.log.Warn("redis get failed", "session_id", sessionID, "error", err.Error())
	}

	messages, err := s.inner.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(messages); err == nil {
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.log.Warn("redis set failed", "session_id", sessionID, "error", err.Error())
		}
	}
	return messages, nil
}

func (s *CachedStore) CreateMessage(ctx context.Context, in NewMessage) (models.Message, error) {
	message, err := s.inner.CreateMessage(ctx, in)
	if err != nil {
		return models.Message{}, err
	}
	s.invalidate(ctx, in.SessionID)
	return message, nil
}

func (s *CachedStore) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.inner.ClearSession(ctx, sessionID); err != nil {
		return err
	}
	s.invalidate(ctx, sessionID)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, sessionID string) {
	if err := s.client.Del(ctx, cacheKeyPrefix+sessionID).Err(); err != nil {
		s.log.Warn("redis del failed", "session_id", sessionID, "error", err.Error())
	}
}
