package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.InsecureSkipVerify {
		slog.Warn("INSECURE_SKIP_VERIFY is not supported by the Gemini provider, ignoring")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client}, nil
}

func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	model := g.client.GenerativeModel(req.Model)
	model.SetMaxOutputTokens(int32(req.MaxTokens))
	model.SetTemperature(req.Temperature)
	model.SetTopP(req.TopP)

	var system []genai.Part
	var user []genai.Part
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, genai.Text(m.Content))
		} else {
			user = append(user, genai.Text(m.Content))
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}

	resp, err := model.GenerateContent(ctx, user...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyReply
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyReply
	}
	return b.String(), nil
}
