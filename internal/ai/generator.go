package ai

import (
	"context"
	"strings"

	"yyss-assistant/internal/assistant"
)

// Generator adapts the chat completion client to assistant.Generator.
type Generator struct {
	client       *OpenAICompatibleClient
	cfg          ChatConfig
	systemPrompt string
}

func NewGenerator(client *OpenAICompatibleClient, cfg ChatConfig, systemPrompt string) *Generator {
	if client == nil {
		client = NewOpenAICompatibleClient()
	}
	return &Generator{
		client:       client,
		cfg:          cfg,
		systemPrompt: strings.TrimSpace(systemPrompt),
	}
}

// Generate sends a single user prompt. Incomplete credentials fail before
// any network call is made.
func (g *Generator) Generate(ctx context.Context, prompt string, params assistant.GenerationParams) (string, error) {
	if !g.cfg.Valid() {
		return "", assistant.ErrGeneratorNotConfigured
	}

	messages := make([]ChatMessage, 0, 2)
	if g.systemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: g.systemPrompt})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})

	return g.client.Complete(ctx, g.cfg, messages, SamplingParams{
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	})
}
