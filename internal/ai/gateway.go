// Package ai wraps the third-party hosted inference service behind a single
// function boundary. The hosted API may answer with a structured reply, a
// plain string, or a failure; the gateway resolves that into a Reply right
// after the call so the rest of the system never sees the wire shapes.
package ai

import (
	"context"
	"strings"
)

// FallbackResponse is stored verbatim when the gateway returns a payload
// with no extractable text.
const FallbackResponse = "No response received"

// Turn is one (role, content) pair of the prompt history. Ids, models and
// timestamps are deliberately not part of what gets sent to the service.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReplyKind tags the shape the service answered with.
type ReplyKind int

const (
	// ReplyStructured is a parsed {message:{content}} payload.
	ReplyStructured ReplyKind = iota
	// ReplyPlainText is a raw string body.
	ReplyPlainText
)

// Reply is the resolved gateway response. Failures are reported through the
// error return of Generate, never as a Reply.
type Reply struct {
	Kind    ReplyKind
	Content string
}

// Text returns the generated text and whether any was extractable.
func (r Reply) Text() (string, bool) {
	text := strings.TrimSpace(r.Content)
	return text, text != ""
}

// Gateway generates a completion for the given history and model.
// The call may take arbitrary latency; callers that need a deadline put
// one on ctx, the contract itself guarantees none.
type Gateway interface {
	Generate(ctx context.Context, history []Turn, model string, maxTokens int) (Reply, error)
}
