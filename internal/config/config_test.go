package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"yyss-assistant/internal/assistant"
)

func TestLoadFile_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.App.Port)
	}
	if cfg.Assistant.PreviewChars != 200 {
		t.Errorf("expected preview chars 200, got %d", cfg.Assistant.PreviewChars)
	}
	if !reflect.DeepEqual(cfg.Assistant.Canned, assistant.DefaultCanned()) {
		t.Errorf("unexpected default canned table: %+v", cfg.Assistant.Canned)
	}
	if cfg.GenerationEnabled() {
		t.Errorf("generation should be disabled without an api key")
	}
	if len(cfg.Warnings()) == 0 {
		t.Errorf("expected a warning for the missing api key")
	}
}

func TestLoadFile_TOMLKeepsCannedOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
api_key = "sk-file"
timeout_seconds = 12

[assistant]
document_keywords = ["handout"]
context_chars = 800

[[assistant.canned]]
keyword = "timetable"
response = "The timetable is on the staff portal."

[[assistant.canned]]
keyword = "time"
response = "It is always time to learn."
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	want := []assistant.CannedResponse{
		{Keyword: "timetable", Response: "The timetable is on the staff portal."},
		{Keyword: "time", Response: "It is always time to learn."},
	}
	if !reflect.DeepEqual(cfg.Assistant.Canned, want) {
		t.Errorf("canned = %+v, want %+v", cfg.Assistant.Canned, want)
	}

	policy := cfg.PolicyConfig()
	if policy.Timeout != 12*time.Second {
		t.Errorf("timeout = %s, want 12s", policy.Timeout)
	}
	if policy.ContextChars != 800 {
		t.Errorf("context chars = %d, want 800", policy.ContextChars)
	}
	if !reflect.DeepEqual(policy.DocumentKeywords, []string{"handout"}) {
		t.Errorf("document keywords = %v", policy.DocumentKeywords)
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[app]\nport = 9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_PORT", "9100")
	t.Setenv("LLM_API_KEY", "sk-env")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("RABBITMQ_ARCHIVE_ENABLED", "true")
	t.Setenv("ASSISTANT_STRIP_PREFIXES", "Answer:, A: ,")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.App.Port != 9100 {
		t.Errorf("expected env port 9100, got %d", cfg.App.Port)
	}
	if cfg.LLM.APIKey != "sk-env" || !cfg.GenerationEnabled() {
		t.Errorf("expected api key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", cfg.LLM.Temperature)
	}
	if !cfg.RabbitMQ.ArchiveEnabled {
		t.Errorf("expected archive enabled")
	}
	if !reflect.DeepEqual(cfg.Assistant.StripPrefixes, []string{"Answer:", "A:"}) {
		t.Errorf("strip prefixes = %v", cfg.Assistant.StripPrefixes)
	}
}

func TestLoadFile_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[app\nport = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ASSISTANT_TEST_INT", "twelve")
	if got := getEnvAsInt("ASSISTANT_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt() = %d, want 7", got)
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := defaultConfig()
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("MaxUploadBytes() = %d", cfg.MaxUploadBytes())
	}
	if cfg.SessionIdleTimeout() != 30*time.Minute {
		t.Errorf("SessionIdleTimeout() = %s", cfg.SessionIdleTimeout())
	}
}
