package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"yyss-assistant/internal/assistant"
	"yyss-assistant/internal/platform/logger"
)

const chatHelp = `Commands:
  /upload <path>  load a document into the session
  /doc            show the current document
  /history        print the conversation so far
  /reset          clear the conversation, keep the document
  /quit           leave
Anything else is sent as a question.`

func newChatCmd(root *rootOptions) *cobra.Command {
	var historyFile string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, log, err := root.localSession()
			if err != nil {
				return err
			}
			defer log.Sync()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "you> ",
				HistoryFile:     historyFile,
				InterruptPrompt: "^C",
				EOFPrompt:       "/quit",
			})
			if err != nil {
				return fmt.Errorf("init readline failed: %w", err)
			}
			defer rl.Close()

			repl := &chatREPL{
				session:     session,
				out:         rl.Stdout(),
				log:         log,
				uploadLimit: cfg.MaxUploadBytes(),
			}
			fmt.Fprintln(repl.out, chatHelp)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if repl.handle(cmd.Context(), line) {
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&historyFile, "history-file", "", "readline history file")
	return cmd
}

type chatREPL struct {
	session     *assistant.Session
	out         io.Writer
	log         *logger.Logger
	uploadLimit int64
}

// handle runs one input line and reports whether the user asked to quit.
func (r *chatREPL) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/upload":
		r.upload(strings.TrimSpace(arg))
	case "/doc":
		r.showDocument()
	case "/history":
		r.showHistory()
	case "/reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "Conversation cleared.")
	default:
		r.ask(ctx, line)
	}
	return false
}

func (r *chatREPL) upload(path string) {
	if path == "" {
		fmt.Fprintln(r.out, "usage: /upload <path>")
		return
	}
	name, raw, err := readDocument(path, r.uploadLimit)
	if err != nil {
		fmt.Fprintf(r.out, "Could not read %s: %v\n", path, err)
		return
	}
	record, err := r.session.HandleUpload(name, raw, "")
	if err != nil {
		fmt.Fprintf(r.out, "Upload failed: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Uploaded %s.\n%s\n", record.Name, record.Preview(assistant.DefaultPreviewChars))
}

func (r *chatREPL) showDocument() {
	record, ok := r.session.Document()
	if !ok {
		fmt.Fprintln(r.out, "No document uploaded.")
		return
	}
	fmt.Fprintf(r.out, "%s (uploaded %s)\n%s\n",
		record.Name,
		record.UploadedAt.Format("2006-01-02 15:04"),
		record.Preview(assistant.DefaultPreviewChars),
	)
}

func (r *chatREPL) showHistory() {
	turns := r.session.History()
	if len(turns) == 0 {
		fmt.Fprintln(r.out, "No messages yet.")
		return
	}
	for _, turn := range turns {
		fmt.Fprintf(r.out, "%s: %s\n", turn.Role, turn.Text)
	}
}

func (r *chatREPL) ask(ctx context.Context, text string) {
	exchange, err := r.session.HandleMessage(ctx, text)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	if exchange.GenerationErr != nil {
		r.log.Warn("generation failed", "error", exchange.GenerationErr)
	}
	fmt.Fprintf(r.out, "assistant> %s\n", exchange.Assistant.Text)
}
