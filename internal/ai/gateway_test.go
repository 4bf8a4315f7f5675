package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayServer(t *testing.T, status int, body string) *HTTPGateway {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewHTTPGateway(server.URL, "test-key", 5*time.Second)
}

func TestGenerateStructuredReply(t *testing.T) {
	gateway := newGatewayServer(t, http.StatusOK, `{"message":{"content":"Hi there"}}`)

	reply, err := gateway.Generate(context.Background(), []Turn{{Role: "user", Content: "Hello"}}, "gpt-5", 1000)
	require.NoError(t, err)
	assert.Equal(t, ReplyStructured, reply.Kind)

	text, ok := reply.Text()
	assert.True(t, ok)
	assert.Equal(t, "Hi there", text)
}

func TestGeneratePlainStringReply(t *testing.T) {
	gateway := newGatewayServer(t, http.StatusOK, `"just a string"`)

	reply, err := gateway.Generate(context.Background(), nil, "gpt-5", 1000)
	require.NoError(t, err)
	assert.Equal(t, ReplyPlainText, reply.Kind)
	assert.Equal(t, "just a string", reply.Content)
}

func TestGenerateNonJSONBody(t *testing.T) {
	gateway := newGatewayServer(t, http.StatusOK, "raw model output")

	reply, err := gateway.Generate(context.Background(), nil, "gpt-5", 1000)
	require.NoError(t, err)
	assert.Equal(t, ReplyPlainText, reply.Kind)
	assert.Equal(t, "raw model output", reply.Content)
}

func TestGenerateServiceError(t *testing.T) {
	gateway := newGatewayServer(t, http.StatusOK, `{"error":{"message":"model overloaded"}}`)

	_, err := gateway.Generate(context.Background(), nil, "gpt-5", 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateHTTPFailure(t *testing.T) {
	gateway := newGatewayServer(t, http.StatusServiceUnavailable, "unavailable")

	_, err := gateway.Generate(context.Background(), nil, "gpt-5", 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGenerateEmptyStructuredContent(t *testing.T) {
	gateway := newGatewayServer(t, http.StatusOK, `{"message":{"content":""}}`)

	reply, err := gateway.Generate(context.Background(), nil, "gpt-5", 1000)
	require.NoError(t, err)

	// No extractable text: the caller stores the fallback literal
	_, ok := reply.Text()
	assert.False(t, ok)
}

func TestGenerateObjectWithoutMessage(t *testing.T) {
	gateway := newGatewayServer(t, http.StatusOK, `{"usage":{"total_tokens":12}}`)

	reply, err := gateway.Generate(context.Background(), nil, "gpt-5", 1000)
	require.NoError(t, err)
	assert.Equal(t, ReplyStructured, reply.Kind)

	_, ok := reply.Text()
	assert.False(t, ok)
}

func TestReplyTextTrimsWhitespace(t *testing.T) {
	text, ok := Reply{Kind: ReplyPlainText, Content: "  hi  "}.Text()
	assert.True(t, ok)
	assert.Equal(t, "hi", text)

	_, ok = Reply{Kind: ReplyPlainText, Content: "   "}.Text()
	assert.False(t, ok)
}
