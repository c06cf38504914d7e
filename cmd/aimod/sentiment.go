package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/laraxot/module-ai-fila5/pkg/sentiment"
)

func newSentimentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment <text>...",
		Short: "Label text as POSITIVE or NEGATIVE",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			action, err := a.sentimentAction(cmd.Context())
			if err != nil {
				return err
			}
			data := action.Execute(cmd.Context(), strings.Join(args, " "))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(data); err != nil {
				return err
			}
			if data.Status == sentiment.StatusError {
				return errors.New("sentiment analysis failed")
			}
			return nil
		},
	}
}
