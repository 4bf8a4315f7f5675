package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway talks to a hosted chat completion API over plain HTTP. It
// accepts all three response shapes the service is known to produce:
// a structured {message:{content}} object, a bare JSON string, or a
// non-JSON text body.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Gateway = (*HTTPGateway)(nil)

// NewHTTPGateway creates a gateway for the given endpoint. A zero timeout
// falls back to 30 seconds.
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatCompletionRequest struct {
	Model     string `json:"model"`
	Messages  []Turn `json:"messages"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *HTTPGateway) Generate(ctx context.Context, history []Turn, model string, maxTokens int) (Reply, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:     model,
		Messages:  history,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return Reply{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("error calling inference service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Reply{}, fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(data))
	}

	return resolveReply(data)
}

// resolveReply maps a raw response body onto the reply union. The decision
// is made once, here; callers only ever see a Reply or an error.
func resolveReply(data []byte) (Reply, error) {
	var structured chatCompletionResponse
	if err := json.Unmarshal(data, &structured); err == nil {
		if structured.Error != nil {
			return Reply{}, fmt.Errorf("inference service error: %s", structured.Error.Message)
		}
		if structured.Message != nil {
			return Reply{Kind: ReplyStructured, Content: structured.Message.Content}, nil
		}
		// An object with no message.content has no extractable text; the
		// caller's fallback literal covers it
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			return Reply{Kind: ReplyStructured}, nil
		}
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		return Reply{Kind: ReplyPlainText, Content: plain}, nil
	}

	// Not JSON at all: the body itself is the text
	return Reply{Kind: ReplyPlainText, Content: string(data)}, nil
}
