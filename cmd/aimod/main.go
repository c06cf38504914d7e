package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
}

func main() {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "aimod",
		Short:         "aimod: LLM-backed ticket triage, completion and sentiment tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "aimod.yaml", "path to config file")

	root.AddCommand(
		newRunCmd(opts),
		newSentimentCmd(opts),
		newCompleteCmd(opts),
		newFinetuneCmd(opts),
		newCacheCmd(opts),
		newStatsCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
