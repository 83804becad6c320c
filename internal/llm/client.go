// Package llm calls OpenAI-compatible completion and embeddings endpoints.
package llm

import (
	"context"
	"time"

	"bookshelf/internal/contextutil"
)

// Client generates chat completions. It is used to suggest book details.
type Client struct {
	endpoint
	model string
}

// NewClient creates a completion client. A zero timeout means no client-side limit.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		endpoint: newEndpoint(baseURL, apiKey, timeout),
		model:    model,
	}
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

type chatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// ChatWithMessages sends a full conversation and returns the first choice's content.
// An empty params.Model falls back to the client's model.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}

	var resp chatResponse
	err := c.post(ctx, "/v1/chat/completions", chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		Stop:        params.Stop,
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "completion received",
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
