package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/laraxot/module-ai-fila5/pkg/ai"
	"github.com/laraxot/module-ai-fila5/pkg/models"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		flagInput ai.Input
		jsonInput string
		inputFile string
	)

	names := make([]string, 0, len(models.AllTasks()))
	for _, t := range models.AllTasks() {
		names = append(names, t.String())
	}

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run one analysis task",
		Long: "Run one analysis task and print its result as JSON.\n\n" +
			"Tasks: " + strings.Join(names, ", ") + ".\n" +
			"Tickets, agents, context and data are passed with --json or --file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := models.ParseTask(args[0])
			if err != nil {
				return err
			}
			in, err := buildInput(cmd, flagInput, jsonInput, inputFile)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			svc, err := a.aiService(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Run(cmd.Context(), task, in)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result)
		},
	}

	cmd.Flags().StringVar(&flagInput.Title, "title", "", "ticket title")
	cmd.Flags().StringVar(&flagInput.Description, "description", "", "ticket description")
	cmd.Flags().StringVar(&flagInput.Category, "category", "", "ticket category")
	cmd.Flags().StringVar(&flagInput.Priority, "priority", "", "ticket priority (auto_response)")
	cmd.Flags().StringVar(&flagInput.Text, "text", "", "text to analyze (sentiment)")
	cmd.Flags().StringVar(&flagInput.Content, "content", "", "ticket content (auto_response)")
	cmd.Flags().StringVar(&jsonInput, "json", "", "task input as a JSON object")
	cmd.Flags().StringVar(&inputFile, "file", "", "read task input JSON from a file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("json", "file")
	return cmd
}

// buildInput decodes the JSON input, if any, and lets explicit flags
// override its string fields.
func buildInput(cmd *cobra.Command, flags ai.Input, jsonInput, inputFile string) (ai.Input, error) {
	var in ai.Input

	var raw []byte
	switch {
	case jsonInput != "":
		raw = []byte(jsonInput)
	case inputFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return in, fmt.Errorf("read input: %w", err)
		}
		raw = data
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return in, fmt.Errorf("read input: %w", err)
		}
		raw = data
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return in, fmt.Errorf("parse input: %w", err)
		}
	}

	overrides := []struct {
		name string
		dst  *string
		val  string
	}{
		{"title", &in.Title, flags.Title},
		{"description", &in.Description, flags.Description},
		{"category", &in.Category, flags.Category},
		{"priority", &in.Priority, flags.Priority},
		{"text", &in.Text, flags.Text},
		{"content", &in.Content, flags.Content},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.name) {
			*o.dst = o.val
		}
	}
	return in, nil
}

func printResult(w, errw io.Writer, result models.TaskResult) error {
	if resp, ok := result.(models.AutoResponse); ok {
		_, err := fmt.Fprintln(w, resp.Text)
		return err
	}
	if result.IsFallback() {
		fmt.Fprintln(errw, "warning: model reply could not be parsed, default result shown")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
