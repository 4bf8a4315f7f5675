package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-chat-console/backend/internal/ai"
	"ai-chat-console/backend/internal/models"
	"ai-chat-console/backend/internal/store"
	apperrors "ai-chat-console/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu    sync.Mutex
	reply ai.Reply
	err   error
	block chan struct{} // when set, Generate waits until it is closed
	calls [][]ai.Turn
}

func (g *fakeGateway) Generate(ctx context.Context, history []ai.Turn, model string, maxTokens int) (ai.Reply, error) {
	g.mu.Lock()
	g.calls = append(g.calls, history)
	block := g.block
	g.mu.Unlock()

	if block != nil {
		<-block
	}
	return g.reply, g.err
}

func newTestController(t *testing.T, gateway ai.Gateway) (*Controller, store.MessageStore) {
	t.Helper()
	fileStore, err := store.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return New(fileStore, gateway, nil, 1000), fileStore
}

func TestSubmitSuccess(t *testing.T) {
	gateway := &fakeGateway{reply: ai.Reply{Kind: ai.ReplyStructured, Content: "Hi there"}}
	controller, messageStore := newTestController(t, gateway)
	ctx := context.Background()

	reply, err := controller.Submit(ctx, "Hello", "gpt-5", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply.Content)
	assert.Equal(t, models.RoleAssistant, reply.Role)

	messages, err := messageStore.ListMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "Hello", messages[0].Content)
	assert.Equal(t, "gpt-5", messages[0].Model)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, "Hi there", messages[1].Content)
	assert.Equal(t, "gpt-5", messages[1].Model)

	assert.Equal(t, StateSucceeded, controller.State("s1"))
}

func TestSubmitSendsProjectedHistory(t *testing.T) {
	gateway := &fakeGateway{reply: ai.Reply{Kind: ai.ReplyStructured, Content: "ok"}}
	controller, _ := newTestController(t, gateway)
	ctx := context.Background()

	_, err := controller.Submit(ctx, "first", "gpt-5", "s1")
	require.NoError(t, err)
	_, err = controller.Submit(ctx, "second", "gpt-5", "s1")
	require.NoError(t, err)

	require.Len(t, gateway.calls, 2)

	// The history includes the just-persisted user turn
	first := gateway.calls[0]
	require.Len(t, first, 1)
	assert.Equal(t, ai.Turn{Role: models.RoleUser, Content: "first"}, first[0])

	second := gateway.calls[1]
	require.Len(t, second, 3)
	assert.Equal(t, ai.Turn{Role: models.RoleAssistant, Content: "ok"}, second[1])
	assert.Equal(t, ai.Turn{Role: models.RoleUser, Content: "second"}, second[2])
}

func TestSubmitGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("model overloaded")}
	controller, messageStore := newTestController(t, gateway)
	ctx := context.Background()

	_, err := controller.Submit(ctx, "Hello", "gpt-5", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")

	// The user turn stays recorded; no phantom assistant message
	messages, err := messageStore.ListMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)

	assert.Equal(t, StateFailed, controller.State("s1"))
}

func TestSubmitEmptyTextRejected(t *testing.T) {
	gateway := &fakeGateway{reply: ai.Reply{Kind: ai.ReplyStructured, Content: "ok"}}
	controller, messageStore := newTestController(t, gateway)
	ctx := context.Background()

	_, err := controller.Submit(ctx, "   ", "gpt-5", "s1")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	messages, err := messageStore.ListMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Empty(t, gateway.calls)
}

func TestSubmitFallbackOnEmptyReply(t *testing.T) {
	gateway := &fakeGateway{reply: ai.Reply{Kind: ai.ReplyStructured}}
	controller, messageStore := newTestController(t, gateway)
	ctx := context.Background()

	reply, err := controller.Submit(ctx, "Hello", "gpt-5", "s1")
	require.NoError(t, err)
	assert.Equal(t, ai.FallbackResponse, reply.Content)

	messages, err := messageStore.ListMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, ai.FallbackResponse, messages[1].Content)
}

func TestSubmitSingleFlightPerSession(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{
		reply: ai.Reply{Kind: ai.ReplyStructured, Content: "done"},
		block: release,
	}
	controller, messageStore := newTestController(t, gateway)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := controller.Submit(ctx, "slow", "gpt-5", "s1")
		firstDone <- err
	}()

	// Wait for the first submit to reach the gateway
	require.Eventually(t, func() bool {
		return controller.State("s1") == StateSending
	}, time.Second, 5*time.Millisecond)

	_, err := controller.Submit(ctx, "too eager", "gpt-5", "s1")
	require.Error(t, err)
	appErr := apperrors.FromError(err)
	assert.Equal(t, "SEND_IN_FLIGHT", appErr.Code)

	close(release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateSucceeded, controller.State("s1"))

	messages, err := messageStore.ListMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSubmitOtherSessionNotBlocked(t *testing.T) {
	release := make(chan struct{})
	blocked := &fakeGateway{
		reply: ai.Reply{Kind: ai.ReplyStructured, Content: "slow"},
		block: release,
	}
	controller, _ := newTestController(t, blocked)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := controller.Submit(ctx, "waiting", "gpt-5", "s1")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return controller.State("s1") == StateSending
	}, time.Second, 5*time.Millisecond)

	// s2 has no in-flight turn, so it proceeds
	assert.Equal(t, StateIdle, controller.State("s2"))

	close(release)
	require.NoError(t, <-done)
}

func TestClearSession(t *testing.T) {
	gateway := &fakeGateway{reply: ai.Reply{Kind: ai.ReplyStructured, Content: "ok"}}
	controller, messageStore := newTestController(t, gateway)
	ctx := context.Background()

	_, err := controller.Submit(ctx, "Hello", "gpt-5", "s1")
	require.NoError(t, err)

	require.NoError(t, controller.Clear(ctx, "s1"))
	messages, err := messageStore.ListMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	require.NoError(t, controller.Clear(ctx, "s1"))
}
