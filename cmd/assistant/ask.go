package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var docPath string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question, optionally against a document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, log, err := root.localSession()
			if err != nil {
				return err
			}
			defer log.Sync()

			if docPath != "" {
				name, raw, err := readDocument(docPath, cfg.MaxUploadBytes())
				if err != nil {
					return err
				}
				if _, err := session.HandleUpload(name, raw, ""); err != nil {
					return err
				}
			}

			exchange, err := session.HandleMessage(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if exchange.GenerationErr != nil {
				log.Warn("generation failed", "error", exchange.GenerationErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), exchange.Assistant.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&docPath, "doc", "d", "", "document to answer from (.txt, .md, .pdf, .docx)")
	return cmd
}
