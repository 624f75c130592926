package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yyss-assistant/internal/assistant"
	"yyss-assistant/internal/pkg/extract"
	"yyss-assistant/internal/platform/logger"
)

func newTestREPL(t *testing.T) (*chatREPL, *bytes.Buffer) {
	t.Helper()
	policy := assistant.NewPolicy(assistant.DefaultPolicyConfig(), nil)
	var out bytes.Buffer
	return &chatREPL{
		session:     assistant.NewSession(policy, assistant.ExtractorFunc(extract.Extract)),
		out:         &out,
		log:         logger.Nop(),
		uploadLimit: 1 << 20,
	}, &out
}

func TestREPLUploadAndAsk(t *testing.T) {
	repl, out := newTestREPL(t)
	path := filepath.Join(t.TempDir(), "timetable.txt")
	if err := os.WriteFile(path, []byte("Staff meetings are on Tuesday. Lunch is at noon."), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	repl.handle(ctx, "/upload "+path)
	if !strings.Contains(out.String(), "Uploaded timetable.txt.") {
		t.Fatalf("upload output = %q", out.String())
	}

	out.Reset()
	repl.handle(ctx, "When are staff meetings?")
	if !strings.Contains(out.String(), "- Staff meetings are on Tuesday.") {
		t.Fatalf("answer output = %q", out.String())
	}

	out.Reset()
	repl.handle(ctx, "/history")
	if !strings.HasPrefix(out.String(), "user: When are staff meetings?\nassistant: ") {
		t.Fatalf("history output = %q", out.String())
	}

	out.Reset()
	repl.handle(ctx, "/reset")
	repl.handle(ctx, "/history")
	if !strings.Contains(out.String(), "No messages yet.") {
		t.Fatalf("history after reset = %q", out.String())
	}

	out.Reset()
	repl.handle(ctx, "/doc")
	if !strings.HasPrefix(out.String(), "timetable.txt") {
		t.Fatalf("doc output = %q", out.String())
	}
}

func TestREPLQuitAndBadUpload(t *testing.T) {
	repl, out := newTestREPL(t)
	ctx := context.Background()

	if !repl.handle(ctx, "/quit") {
		t.Fatal("/quit should end the loop")
	}
	if repl.handle(ctx, "   ") {
		t.Fatal("blank line should not end the loop")
	}

	repl.handle(ctx, "/upload "+filepath.Join(t.TempDir(), "missing.pdf"))
	if !strings.Contains(out.String(), "Could not read") {
		t.Fatalf("output = %q", out.String())
	}
	if _, ok := repl.session.Document(); ok {
		t.Fatal("failed upload stored a document")
	}
}

func TestAskCommandWithDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Notes\n\nPhotosynthesis happens in chloroplasts."), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_MODE", "test")
	t.Setenv("LLM_API_KEY", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), "ask", "--doc", path, "what", "is", "in", "the", "document?"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "Yes, I have a document uploaded: notes.md.") {
		t.Fatalf("output = %q", out.String())
	}
}
