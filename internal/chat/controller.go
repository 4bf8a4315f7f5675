// Package chat orchestrates turn-taking between the message store and the
// inference gateway.
package chat

import (
	"context"
	"strings"
	"sync"

	"ai-chat-console/backend/internal/ai"
	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/internal/store"
	"ai-chat-console/backend/pkg/errors"
	"ai-chat-console/backend/pkg/logger"
	"ai-chat-console/backend/pkg/observability"
)

// State is a session's position in the turn lifecycle.
type State int

const (
	// StateIdle means no turn is in flight.
	StateIdle State = iota
	// StateSending means a turn is in flight; further submits are rejected.
	StateSending
	// StateSucceeded is the terminal state of the last completed turn.
	StateSucceeded
	// StateFailed is the terminal state of the last failed turn.
	StateFailed
)

// Controller runs the submit flow: persist the user turn, build the prompt
// history, call the gateway, persist the assistant turn. At most one turn is
// in flight per session; the guard is the Sending state, cooperative rather
// than preemptive, and sessions are fully independent of each other.
type Controller struct {
	store     store.MessageStore
	gateway   ai.Gateway
	log       *logger.Logger
	metrics   *observability.Metrics
	maxTokens int

	mu   sync.Mutex
	last map[string]State // last completed-turn state per session
	busy map[string]bool  // sessions with a turn in flight
}

// New creates a controller over the given store and gateway.
func New(messageStore store.MessageStore, gateway ai.Gateway, log *logger.Logger, maxTokens int) *Controller {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Controller{
		store:     messageStore,
		gateway:   gateway,
		log:       log,
		maxTokens: maxTokens,
		last:      make(map[string]State),
		busy:      make(map[string]bool),
	}
}

// WithMetrics attaches turn metrics recording.
func (c *Controller) WithMetrics(m *observability.Metrics) *Controller {
	c.metrics = m
	return c
}

// State reports the session's current lifecycle state.
func (c *Controller) State(sessionID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[sessionID] {
		return StateSending
	}
	if s, ok := c.last[sessionID]; ok {
		return s
	}
	return StateIdle
}

// Submit performs one full turn and returns the persisted assistant message.
// The user turn is written before the gateway is called, so a gateway
// failure leaves the user's message recorded with no assistant reply; that
// is deliberate, the transcript reflects exactly what was attempted.
func (c *Controller) Submit(ctx context.Context, text, model, sessionID string) (models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, errors.NewValidationError("message must not be empty", []store.FieldError{
			{Field: "message", Message: "message must not be empty"},
		})
	}

	if !c.acquire(sessionID) {
		return models.Message{}, errors.NewError(409, "SEND_IN_FLIGHT",
			"a message is already being sent for this session")
	}

	reply, err := c.turn(ctx, text, model, sessionID)

	c.mu.Lock()
	delete(c.busy, sessionID)
	if err != nil {
		c.last[sessionID] = StateFailed
	} else {
		c.last[sessionID] = StateSucceeded
	}
	c.mu.Unlock()

	return reply, err
}

// turn runs the body of a submit with the in-flight guard held.
func (c *Controller) turn(ctx context.Context, text, model, sessionID string) (models.Message, error) {
	log := c.log.WithSessionID(sessionID)

	if _, err := c.store.CreateMessage(ctx, store.NewMessage{
		Content:   text,
		Role:      models.RoleUser,
		Model:     model,
		SessionID: sessionID,
	}); err != nil {
		return models.Message{}, err
	}
	c.metrics.RecordMessage(ctx, models.RoleUser)

	// Full ordered history including the turn just written, projected down
	// to (role, content) pairs.
	messages, err := c.store.ListMessages(ctx, sessionID)
	if err != nil {
		return models.Message{}, err
	}
	history := make([]ai.Turn, 0, len(messages))
	for _, m := range messages {
		history = append(history, ai.Turn{Role: m.Role, Content: m.Content})
	}

	// The sole suspension point. No retry, no rollback of the user turn.
	reply, err := c.generate(ctx, history, model)
	if err != nil {
		log.LogError(err, "inference call failed", "model", model)
		return models.Message{}, errors.NewGatewayError(err)
	}

	content, ok := reply.Text()
	if !ok {
		content = ai.FallbackResponse
	}

	assistant, err := c.store.CreateMessage(ctx, store.NewMessage{
		Content:   content,
		Role:      models.RoleAssistant,
		Model:     model,
		SessionID: sessionID,
	})
	if err != nil {
		return models.Message{}, err
	}
	c.metrics.RecordMessage(ctx, models.RoleAssistant)

	return assistant, nil
}

func (c *Controller) generate(ctx context.Context, history []ai.Turn, model string) (ai.Reply, error) {
	done := c.metrics.StartGatewayCall(ctx, model)
	reply, err := c.gateway.Generate(ctx, history, model, c.maxTokens)
	done(err)
	return reply, err
}

// Clear removes the session's messages. It does not cancel an in-flight
// send: if a turn is pending when the session is cleared, its assistant
// reply is still appended once the gateway returns.
func (c *Controller) Clear(ctx context.Context, sessionID string) error {
	return c.store.ClearSession(ctx, sessionID)
}

func (c *Controller) acquire(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[sessionID] {
		return false
	}
	c.busy[sessionID] = true
	return true
}
