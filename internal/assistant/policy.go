package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPreviewChars  = 200
	DefaultContextChars  = 1000
	DefaultGenerateLimit = 20 * time.Second
	DefaultApology       = "Sorry, I couldn't come up with an answer right now. Please try again in a moment."
	DefaultExcerptIntro  = "Here is what the uploaded document says about that:"
)

// ReplySource names the rule that produced a reply.
type ReplySource string

const (
	SourceCanned    ReplySource = "canned"
	SourceDocument  ReplySource = "document"
	SourceExcerpt   ReplySource = "excerpt"
	SourceGenerated ReplySource = "generated"
	SourceFallback  ReplySource = "fallback"
)

type CannedResponse struct {
	Keyword  string `toml:"keyword" json:"keyword"`
	Response string `toml:"response" json:"response"`
}

type GenerationParams struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// Generator is the external text-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

type PolicyConfig struct {
	Canned           []CannedResponse
	DocumentKeywords []string
	PreviewChars     int
	ContextChars     int
	StripPrefixes    []string
	Apology          string
	ExcerptIntro     string
	Timeout          time.Duration
	Params           GenerationParams
	MatchLimit       int
}

func DefaultCanned() []CannedResponse {
	return []CannedResponse{
		{Keyword: "hello", Response: "Hello! I'm the YYSS Teacher Assistant. Upload a reference document and ask me about it."},
		{Keyword: "help", Response: "Upload a reference document (TXT, PDF or DOCX), then ask a question. I'll quote the relevant parts of the document or answer from my general knowledge."},
		{Keyword: "thank", Response: "You're welcome! Let me know if there's anything else."},
	}
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Canned:           DefaultCanned(),
		DocumentKeywords: []string{"document", "uploaded", "file"},
		PreviewChars:     DefaultPreviewChars,
		ContextChars:     DefaultContextChars,
		StripPrefixes:    []string{"Answer:", "Question:"},
		Apology:          DefaultApology,
		ExcerptIntro:     DefaultExcerptIntro,
		Timeout:          DefaultGenerateLimit,
		Params:           GenerationParams{MaxTokens: 512, Temperature: 0.7, TopP: 0.9},
		MatchLimit:       DefaultMatchLimit,
	}
}

type Reply struct {
	Text   string      `json:"text"`
	Source ReplySource `json:"source"`
	// Err holds the swallowed generation failure behind a fallback reply.
	Err error `json:"-"`
}

// Policy decides how each user message is answered. Rules are tried in a
// fixed order and the first one that applies wins.
type Policy struct {
	cfg       PolicyConfig
	matcher   *Matcher
	generator Generator
}

func NewPolicy(cfg PolicyConfig, generator Generator) *Policy {
	def := DefaultPolicyConfig()
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = def.PreviewChars
	}
	if cfg.ContextChars < 0 {
		cfg.ContextChars = 0
	}
	if strings.TrimSpace(cfg.Apology) == "" {
		cfg.Apology = def.Apology
	}
	if strings.TrimSpace(cfg.ExcerptIntro) == "" {
		cfg.ExcerptIntro = def.ExcerptIntro
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Policy{
		cfg:       cfg,
		matcher:   NewMatcher(cfg.MatchLimit),
		generator: generator,
	}
}

func (p *Policy) Apology() string {
	return p.cfg.Apology
}

// Respond never fails; generation problems turn into the apology reply.
func (p *Policy) Respond(ctx context.Context, message string, doc *DocumentRecord) Reply {
	lowered := strings.ToLower(message)

	if text, ok := p.canned(lowered); ok {
		return Reply{Text: text, Source: SourceCanned}
	}

	if doc != nil {
		if containsAny(lowered, p.cfg.DocumentKeywords) {
			return Reply{Text: p.documentSummary(*doc), Source: SourceDocument}
		}
		if excerpts := p.matcher.Match(message, doc.Body); len(excerpts) > 0 {
			return Reply{Text: p.formatExcerpts(excerpts), Source: SourceExcerpt}
		}
	}

	return p.generate(ctx, message, doc)
}

func (p *Policy) canned(lowered string) (string, bool) {
	for _, entry := range p.cfg.Canned {
		keyword := strings.ToLower(strings.TrimSpace(entry.Keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, keyword) {
			return entry.Response, true
		}
	}
	return "", false
}

func (p *Policy) documentSummary(doc DocumentRecord) string {
	return fmt.Sprintf(
		"Yes, I have a document uploaded: %s. Here's a preview of its content:\n\n%s...",
		doc.Name,
		doc.Preview(p.cfg.PreviewChars),
	)
}

func (p *Policy) formatExcerpts(excerpts []string) string {
	var b strings.Builder
	b.WriteString(p.cfg.ExcerptIntro)
	for _, sentence := range excerpts {
		b.WriteString("\n- ")
		b.WriteString(sentence)
	}
	return b.String()
}

func (p *Policy) generate(ctx context.Context, message string, doc *DocumentRecord) Reply {
	if p.generator == nil {
		return p.fallback(&GenerationError{Err: ErrGeneratorNotConfigured})
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	raw, err := p.generator.Generate(callCtx, p.buildPrompt(message, doc), p.cfg.Params)
	if err != nil {
		return p.fallback(&GenerationError{Err: err})
	}
	text := p.stripEchoedPrefixes(raw)
	if text == "" {
		return p.fallback(&GenerationError{Err: fmt.Errorf("empty generation result")})
	}
	return Reply{Text: text, Source: SourceGenerated}
}

func (p *Policy) fallback(err error) Reply {
	return Reply{Text: p.cfg.Apology, Source: SourceFallback, Err: err}
}

func (p *Policy) buildPrompt(message string, doc *DocumentRecord) string {
	message = strings.TrimSpace(message)
	if doc == nil || p.cfg.ContextChars == 0 {
		return message
	}
	excerpt := truncateRunes(doc.Body, p.cfg.ContextChars)
	return "Use the following excerpt of the teacher's reference document as context.\n\n" +
		"Context:\n" + excerpt + "\n\n" +
		"Question: " + message + "\n\n" +
		"Answer:"
}

func (p *Policy) stripEchoedPrefixes(text string) string {
	text = strings.TrimSpace(text)
	for {
		stripped := false
		for _, prefix := range p.cfg.StripPrefixes {
			if prefix == "" {
				continue
			}
			if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
				text = strings.TrimSpace(text[len(prefix):])
				stripped = true
			}
		}
		if !stripped {
			return text
		}
	}
}

func containsAny(lowered string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}
