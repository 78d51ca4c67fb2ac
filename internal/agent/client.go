// Package agent implements the language-model-backed roles of a deduction
// session: the moderator who frames and judges rounds, the character actors,
// and the narrative polisher. All of them speak through one shared
// chat-completion client.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/louisbranch/ludos/internal/deduction/domain"
)

// Provider defaults matching the DeepSeek chat-completion endpoint.
const (
	DefaultModel   = "deepseek-reasoner"
	DefaultBaseURL = "https://api.deepseek.com"
)

// Request is one chat completion: a system prompt, a user prompt, and the
// sampling and retry policy the caller wants for it.
type Request struct {
	System      string
	User        string
	Temperature float64
	// Retries is how many additional attempts follow a failed call.
	Retries int
}

// Completer is the chat-completion surface the agent roles build on.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures the completion client.
type Config struct {
	APIKey  string `env:"LLM_API_KEY"`
	BaseURL string `env:"LLM_BASE_URL"`
	Model   string `env:"LLM_MODEL"`
}

// Client calls an OpenAI-compatible chat-completion API.
type Client struct {
	api   openai.Client
	model string
}

// New builds a client. The API key is required; base URL and model fall back
// to the DeepSeek defaults. SDK-internal retries are disabled so each
// Request's retry budget is the only one in play.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: LLM_API_KEY is not set", domain.ErrConfiguration)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	return &Client{api: api, model: model}, nil
}

// Complete runs the chat completion, retrying transport failures and empty
// responses until the request's budget runs out. Exhaustion reports a
// workflow error carrying the last failure.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= req.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(req.System),
				openai.UserMessage(req.User),
			},
			Temperature: openai.Float(req.Temperature),
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(completion.Choices) == 0 {
			lastErr = errors.New("completion returned no choices")
			continue
		}
		return completion.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("%w: llm call failed after %d attempts: %v", domain.ErrWorkflow, req.Retries+1, lastErr)
}

// Ping verifies the provider is reachable and the credentials work with a
// single minimal completion.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Complete(ctx, Request{
		System: "You are a health check endpoint.",
		User:   "ping",
	})
	return err
}
