package store

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/pkg/errors"
	"ai-chat-console/backend/pkg/logger"

	"github.com/google/uuid"
)

// FileStore is the local message store variant. Each session is a single
// serialized collection under a namespaced key file in the data directory.
// Malformed stored data is treated as empty rather than surfaced; corruption
// is dropped silently and only logged at debug level.
type FileStore struct {
	dir string
	log *logger.Logger
	mu  sync.Mutex
}

var _ MessageStore = (*FileStore)(nil)

// NewFileStore creates a file-backed message store rooted at dir,
// creating the directory if needed.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStorageError(err)
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &FileStore{dir: dir, log: log}, nil
}

// sessionPath returns the namespaced key file for a session. Session IDs
// are opaque caller-supplied strings, so they are escaped before being
// used as a file name.
func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.dir, "messages-"+url.PathEscape(sessionID)+".json")
}

// load reads a session's collection. Missing or unreadable files and
// malformed JSON all read as an empty session.
func (s *FileStore) load(sessionID string) []models.Message {
	data, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		return nil
	}

	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		s.log.Debug("dropping malformed session data", "session_id", sessionID, "error", err.Error())
		return nil
	}
	return messages
}

func (s *FileStore) save(sessionID string, messages []models.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return errors.NewStorageError(err)
	}
	if err := os.WriteFile(s.sessionPath(sessionID), data, 0o644); err != nil {
		return errors.NewStorageError(err)
	}
	return nil
}

func (s *FileStore) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The stored collection is already in insertion order; a stable sort
	// keeps that order for equal timestamps.
	messages := s.load(sessionID)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (s *FileStore) CreateMessage(ctx context.Context, in NewMessage) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.load(in.SessionID)

	message := models.Message{
		ID:        uuid.NewString(),
		Content:   in.Content,
		Role:      in.Role,
		Model:     in.Model,
		Timestamp: time.Now().UTC(),
		SessionID: in.SessionID,
		Seq:       int64(len(messages)) + 1,
	}

	messages = append(messages, message)
	if err := s.save(in.SessionID, messages); err != nil {
		return models.Message{}, err
	}
	return message, nil
}

func (s *FileStore) ClearSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.sessionPath(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err)
	}
	return nil
}
