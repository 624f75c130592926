package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"yyss-assistant/internal/assistant"
	"yyss-assistant/internal/bootstrap"
	"yyss-assistant/internal/config"
	"yyss-assistant/internal/platform/logger"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Document-grounded assistant for teachers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (defaults to $CONFIG_FILE or configs/config.toml)")

	cmd.AddCommand(newChatCmd(opts), newAskCmd(opts))
	return cmd
}

// localSession loads configuration and opens a session that lives only in
// this process.
func (o *rootOptions) localSession() (*assistant.Session, *config.Config, *logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger failed: %w", err)
	}
	for _, warning := range cfg.Warnings() {
		log.Warn("config warning", "detail", warning)
	}
	return bootstrap.SessionFactory(cfg)(), cfg, log, nil
}

func readDocument(path string, limit int64) (string, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if limit > 0 && info.Size() > limit {
		return "", nil, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), limit)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(path), raw, nil
}
