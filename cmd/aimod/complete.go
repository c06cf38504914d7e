package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCompleteCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "complete <prompt>...",
		Short: "Run a single-shot text completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			action, err := a.completionAction()
			if err != nil {
				return err
			}
			data, err := action.Execute(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			}
			fmt.Fprintln(out, data.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "tokens: prompt=%d completion=%d total=%d\n",
				data.PromptTokens, data.CompletionTokens, data.TotalTokens)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print text and token usage as JSON")
	return cmd
}
