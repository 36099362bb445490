// Package chat forwards user messages to an OpenAI-compatible
// chat-completions API under the SHE-Mentor persona.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

// SystemPrompt sets the assistant persona for every conversation.
const SystemPrompt = "You are SHE-Mentor, a highly intelligent, empowering AI assistant that helps women grow emotionally, mentally, and professionally."

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// MaxMessageLength is the longest accepted message, in characters.
const MaxMessageLength = 4000

var (
	// ErrEmptyMessage is returned for a blank message.
	ErrEmptyMessage = errors.New("message is required")

	// ErrMessageTooLong is returned for messages over MaxMessageLength.
	ErrMessageTooLong = errors.New("message is too long")

	// ErrNotConfigured is returned by New when no API key is set.
	ErrNotConfigured = errors.New("chat is not configured")

	// ErrNoReply is returned when the provider answers with no choices.
	ErrNoReply = errors.New("assistant returned no reply")

	// ErrUpstream wraps transport and provider errors.
	ErrUpstream = errors.New("assistant request failed")
)

// Config configures the chat client.
type Config struct {
	APIKey     string
	BaseURL    string // empty means the provider default
	Model      string
	HTTPClient *http.Client
}

// Client sends single-turn chat requests.
type Client struct {
	api   *openai.Client
	model string
}

// New builds a client. It returns ErrNotConfigured if cfg.APIKey is empty.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	} else {
		oc.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{api: openai.NewClientWithConfig(oc), model: model}, nil
}

// ValidateMessage checks a user message before it is sent.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return fmt.Errorf("%w: limit is %d characters", ErrMessageTooLong, MaxMessageLength)
	}
	return nil
}

// Reply sends message and returns the assistant's answer.
func (c *Client) Reply(ctx context.Context, message string) (string, error) {
	if err := ValidateMessage(message); err != nil {
		return "", err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoReply
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model requests are sent to.
func (c *Client) Model() string {
	return c.model
}
