package bootstrap

import (
	"yyss-assistant/internal/ai"
	"yyss-assistant/internal/assistant"
	"yyss-assistant/internal/config"
	"yyss-assistant/internal/pkg/extract"
)

// NewPolicy builds the response policy with the configured generation client.
func NewPolicy(cfg *config.Config) *assistant.Policy {
	generator := ai.NewGenerator(ai.NewOpenAICompatibleClient(), ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	}, cfg.LLM.SystemPrompt)
	return assistant.NewPolicy(cfg.PolicyConfig(), generator)
}

// Extractor turns uploads into plain text.
func Extractor() assistant.Extractor {
	return assistant.ExtractorFunc(extract.Extract)
}

// SessionFactory returns sessions sharing one immutable policy.
func SessionFactory(cfg *config.Config) func() *assistant.Session {
	policy := NewPolicy(cfg)
	extractor := Extractor()
	return func() *assistant.Session {
		return assistant.NewSession(policy, extractor)
	}
}
