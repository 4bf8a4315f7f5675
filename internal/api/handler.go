package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-chat-console/backend/internal/ai"
	"ai-chat-console/backend/internal/chat"
	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/internal/store"
	"ai-chat-console/backend/pkg/errors"
	"ai-chat-console/backend/pkg/logger"
)

// ChatHandler exposes the message store and the chat turn over HTTP.
type ChatHandler struct {
	store      store.MessageStore
	controller *chat.Controller
	serverTurn bool
	log        *logger.Logger
}

// NewChatHandler creates the handler. When serverTurn is enabled, POST
// /api/chat performs the full turn through the controller instead of only
// storing the user message.
func NewChatHandler(messageStore store.MessageStore, controller *chat.Controller, serverTurn bool, log *logger.Logger) *ChatHandler {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &ChatHandler{
		store:      messageStore,
		controller: controller,
		serverTurn: serverTurn,
		log:        log,
	}
}

// RegisterRoutes registers the chat API routes.
func (h *ChatHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/messages/:sessionId", h.GetMessages)
	api.POST("/chat", h.Chat)
	api.POST("/ai-response", h.StoreAIResponse)
	api.DELETE("/messages/:sessionId", h.ClearMessages)
	api.GET("/models", h.ListModels)
}

// GetMessages returns a session's messages ordered by timestamp ascending.
// An unknown session yields an empty array.
func (h *ChatHandler) GetMessages(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	messages, err := h.store.ListMessages(ctx.Request.Context(), sessionID)
	if err != nil {
		ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model"`
	SessionID string `json:"sessionId"`
}

func (r ChatRequest) validate() error {
	var fields []store.FieldError
	if strings.TrimSpace(r.Message) == "" {
		fields = append(fields, store.FieldError{Field: "message", Message: "message must not be empty"})
	}
	if r.Model == "" {
		fields = append(fields, store.FieldError{Field: "model", Message: "model is required"})
	}
	if r.SessionID == "" {
		fields = append(fields, store.FieldError{Field: "sessionId", Message: "sessionId is required"})
	}
	if len(fields) > 0 {
		return errors.NewValidationError("invalid chat request", fields)
	}
	return nil
}

// Chat stores the user turn. With server-side turns enabled it also runs
// inference and stores the assistant turn; otherwise the client drives
// inference and writes the reply back through StoreAIResponse.
func (h *ChatHandler) Chat(ctx *gin.Context) {
	var request ChatRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.Error(errors.NewValidationError("invalid request body", nil))
		ctx.Abort()
		return
	}

	if err := request.validate(); err != nil {
		ctx.Error(err)
		ctx.Abort()
		return
	}

	if h.serverTurn && h.controller != nil {
		reply, err := h.controller.Submit(ctx.Request.Context(), request.Message, request.Model, request.SessionID)
		if err != nil {
			// The user turn is already recorded when the gateway fails;
			// the caller sees the error, not a phantom assistant message.
			ctx.Error(err)
			ctx.Abort()
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"success":           true,
			"userMessageStored": true,
			"message":           reply,
		})
		return
	}

	_, err := h.store.CreateMessage(ctx.Request.Context(), store.NewMessage{
		Content:   request.Message,
		Role:      models.RoleUser,
		Model:     request.Model,
		SessionID: request.SessionID,
	})
	if err != nil {
		ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":           true,
		"userMessageStored": true,
	})
}

// AIResponseRequest is the POST /api/ai-response body: the reply generated
// client-side, to be recorded as an assistant turn.
type AIResponseRequest struct {
	Content   string `json:"content"`
	Model     string `json:"model"`
	SessionID string `json:"sessionId"`
}

// StoreAIResponse persists an assistant turn.
func (h *ChatHandler) StoreAIResponse(ctx *gin.Context) {
	var request AIResponseRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.Error(errors.NewValidationError("invalid request body", nil))
		ctx.Abort()
		return
	}

	message, err := h.store.CreateMessage(ctx.Request.Context(), store.NewMessage{
		Content:   request.Content,
		Role:      models.RoleAssistant,
		Model:     request.Model,
		SessionID: request.SessionID,
	})
	if err != nil {
		ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": message})
}

// ClearMessages removes every message for the session. Clearing a session
// that does not exist still succeeds.
func (h *ChatHandler) ClearMessages(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	if err := h.store.ClearSession(ctx.Request.Context(), sessionID); err != nil {
		ctx.Error(err)
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// ListModels returns the selectable model catalog.
func (h *ChatHandler) ListModels(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"models": ai.SupportedModels})
}
