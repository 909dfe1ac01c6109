// Package llm wraps the chat-completion providers used to generate
// recommendations behind one small interface.
package llm

import (
	"context"
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

// Request is one chat-style completion call. Generation parameters are
// passed through unchanged to the provider.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Client returns the text content of the first completion choice.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrEmptyReply means the provider answered without any text content.
var ErrEmptyReply = errors.New("model returned no content")

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Provider           string
	APIKey             string
	BaseURL            string // OpenAI-compatible endpoint override
	InsecureSkipVerify bool
}

// New builds the client for cfg.Provider. Callers should Close the result
// when it implements io.Closer.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
