package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/laraxot/module-ai-fila5/pkg/finetune"
)

func newFinetuneCmd(opts *rootOptions) *cobra.Command {
	req := finetune.DefaultRequest()

	cmd := &cobra.Command{
		Use:   "finetune",
		Short: "Submit a fine-tuning job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			client, err := a.fineTuneClient()
			if err != nil {
				return err
			}
			if err := client.Submit(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fine-tuning started on %s (%d epochs, batch %d, lr %g).\n",
				req.Dataset, req.Epochs, req.BatchSize, req.LearningRate)
			return nil
		},
	}

	cmd.Flags().Float64Var(&req.LearningRate, "learning-rate", req.LearningRate, "learning rate")
	cmd.Flags().IntVar(&req.BatchSize, "batch-size", req.BatchSize, "batch size")
	cmd.Flags().IntVar(&req.Epochs, "epochs", req.Epochs, "number of epochs")
	cmd.Flags().StringVar(&req.Dataset, "dataset", req.Dataset, "dataset name (dataset1 or dataset2)")
	cmd.Flags().StringVarP(&req.DatasetFile, "file", "f", "", "dataset file to upload")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
