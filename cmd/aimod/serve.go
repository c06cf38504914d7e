package main

import (
	"github.com/spf13/cobra"

	"github.com/laraxot/module-ai-fila5/pkg/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}

			ctx := cmd.Context()
			svc, err := a.aiService(ctx)
			if err != nil {
				return err
			}
			labeler, err := a.sentimentAction(ctx)
			if err != nil {
				return err
			}
			tuner, err := a.fineTuneClient()
			if err != nil {
				return err
			}
			tr, err := a.taskTracker()
			if err != nil {
				return err
			}

			deps := server.Deps{
				Tasks:     svc,
				Sentiment: labeler,
				FineTune:  tuner,
				Cache:     a.cache,
				Tracker:   tr,
			}
			// Completion is optional; the route answers 503 without it.
			if completer, err := a.completionAction(); err != nil {
				a.logger.Warn("completion disabled", "error", err)
			} else {
				deps.Completion = completer
			}

			return server.New(a.cfg, deps, a.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
