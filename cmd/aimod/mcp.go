package main

import (
	"github.com/spf13/cobra"

	"github.com/laraxot/module-ai-fila5/pkg/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			svc, err := a.aiService(cmd.Context())
			if err != nil {
				return err
			}
			tr, err := a.taskTracker()
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr.
			return mcp.New(svc, a.cache, tr, version, a.logger).Serve()
		},
	}
}
