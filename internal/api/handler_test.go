package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-chat-console/backend/internal/ai"
	"ai-chat-console/backend/internal/chat"
	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/internal/store"
	"ai-chat-console/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, handler *ChatHandler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(errors.ErrorHandler())
	handler.RegisterRoutes(engine.Group("/api"))
	return engine
}

func newFileBackedHandler(t *testing.T) (*ChatHandler, store.MessageStore) {
	t.Helper()
	fileStore, err := store.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return NewChatHandler(fileStore, nil, false, nil), fileStore
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGetMessagesEmptySession(t *testing.T) {
	handler, _ := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodGet, "/api/messages/unknown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestChatStoresUserMessage(t *testing.T) {
	handler, messageStore := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodPost, "/api/chat",
		`{"message":"Hello","model":"gpt-5","sessionId":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success           bool `json:"success"`
		UserMessageStored bool `json:"userMessageStored"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.UserMessageStored)

	messages, err := messageStore.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "Hello", messages[0].Content)
	assert.Equal(t, "gpt-5", messages[0].Model)
}

func TestChatValidationFailure(t *testing.T) {
	handler, messageStore := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodPost, "/api/chat",
		`{"message":"","model":"","sessionId":"s1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.CodeValidation, resp.Error.Code)

	fields := make([]string, 0, len(resp.Error.Details))
	for _, d := range resp.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"message", "model"}, fields)

	// Validation rejects before any mutation
	messages, err := messageStore.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestChatMalformedBody(t *testing.T) {
	handler, _ := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodPost, "/api/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreAIResponse(t *testing.T) {
	handler, messageStore := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodPost, "/api/ai-response",
		`{"content":"Hi there","model":"gpt-5","sessionId":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message models.Message `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message.ID)
	assert.Equal(t, models.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "Hi there", resp.Message.Content)

	messages, err := messageStore.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
}

func TestStoreAIResponseMissingFields(t *testing.T) {
	handler, _ := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodPost, "/api/ai-response",
		`{"content":"Hi there","sessionId":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearMessages(t *testing.T) {
	handler, messageStore := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	_, err := messageStore.CreateMessage(context.Background(), store.NewMessage{
		Content: "Hello", Role: models.RoleUser, Model: "gpt-5", SessionID: "s1",
	})
	require.NoError(t, err)

	w := doJSON(t, engine, http.MethodDelete, "/api/messages/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	messages, err := messageStore.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Idempotent
	w = doJSON(t, engine, http.MethodDelete, "/api/messages/s1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListModels(t *testing.T) {
	handler, _ := newFileBackedHandler(t)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gpt-5")
}

// failingStore simulates a broken persistence medium.
type failingStore struct{}

func (failingStore) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	return nil, errors.NewStorageError(stderrors.New("connection refused"))
}

func (failingStore) CreateMessage(ctx context.Context, in store.NewMessage) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}
	return models.Message{}, errors.NewStorageError(stderrors.New("connection refused"))
}

func (failingStore) ClearSession(ctx context.Context, sessionID string) error {
	return errors.NewStorageError(stderrors.New("connection refused"))
}

func TestStorageFailuresSurfaceAsErrors(t *testing.T) {
	handler := NewChatHandler(failingStore{}, nil, false, nil)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodGet, "/api/messages/s1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeStorage)

	w = doJSON(t, engine, http.MethodPost, "/api/chat",
		`{"message":"Hello","model":"gpt-5","sessionId":"s1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doJSON(t, engine, http.MethodDelete, "/api/messages/s1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type fakeGateway struct {
	reply ai.Reply
	err   error
}

func (g fakeGateway) Generate(ctx context.Context, history []ai.Turn, model string, maxTokens int) (ai.Reply, error) {
	return g.reply, g.err
}

func TestChatServerTurn(t *testing.T) {
	fileStore, err := store.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	controller := chat.New(fileStore, fakeGateway{reply: ai.Reply{Kind: ai.ReplyStructured, Content: "Hi there"}}, nil, 1000)

	handler := NewChatHandler(fileStore, controller, true, nil)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodPost, "/api/chat",
		`{"message":"Hello","model":"gpt-5","sessionId":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success           bool           `json:"success"`
		UserMessageStored bool           `json:"userMessageStored"`
		Message           models.Message `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Hi there", resp.Message.Content)

	messages, err := fileStore.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
}

func TestChatServerTurnGatewayFailure(t *testing.T) {
	fileStore, err := store.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	controller := chat.New(fileStore, fakeGateway{err: stderrors.New("model overloaded")}, nil, 1000)

	handler := NewChatHandler(fileStore, controller, true, nil)
	engine := newTestRouter(t, handler)

	w := doJSON(t, engine, http.MethodPost, "/api/chat",
		`{"message":"Hello","model":"gpt-5","sessionId":"s1"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// The user turn is recorded even though the reply failed
	messages, err := fileStore.ListMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
}
