package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/transcribe"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Transcribe page scans through the Message Batches API",
	Long:  "Batch transcription runs asynchronously: 'submit' uploads a whole archive as one batch job, 'retrieve' collects the finished results into a dataset.",
}

// -- batch submit --

var batchSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a batch transcription job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		images, _ := cmd.Flags().GetString("images")
		runs, _ := cmd.Flags().GetString("runs")
		limit, _ := cmd.Flags().GetInt("limit")

		tr, err := initTranscriber()
		if err != nil {
			return err
		}

		pages, err := transcribe.ListPages(images, limit)
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return eris.Errorf("no page scans found under %s", images)
		}
		if maxSize := cfg.Anthropic.MaxBatchSize; len(pages) > maxSize {
			zap.L().Warn("truncating batch",
				zap.Int("pages", len(pages)),
				zap.Int("max_batch_size", maxSize),
			)
			pages = pages[:maxSize]
		}

		runDir, err := tr.Submit(ctx, pages, runs)
		if err != nil {
			return err
		}

		fmt.Printf("Submitted %d pages; run metadata in %s.\n", len(pages), runDir)
		fmt.Println("Retrieve results later with: journal-cli batch retrieve")
		return nil
	},
}

// -- batch retrieve --

var batchRetrieveCmd = &cobra.Command{
	Use:   "retrieve [run-dir]",
	Short: "Collect results of a submitted batch",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runs, _ := cmd.Flags().GetString("runs")

		runDir := ""
		if len(args) == 1 {
			runDir = args[0]
		} else {
			latest, err := transcribe.LatestRunDir(runs)
			if err != nil {
				return err
			}
			runDir = latest
		}

		tr, err := initTranscriber()
		if err != nil {
			return err
		}

		res, err := tr.Retrieve(ctx, runDir)
		if err != nil {
			return err
		}
		if res.Output == "" {
			fmt.Printf("Batch is still %s; try again later.\n", res.Status)
			return nil
		}

		fmt.Printf("Wrote %d records to %s (%d items failed).\n", res.Records, res.Output, res.Errored)
		return nil
	},
}

func init() {
	batchSubmitCmd.Flags().String("images", "images", "root directory of page scans")
	batchSubmitCmd.Flags().Int("limit", 0, "max pages to submit (0 for all)")

	batchCmd.PersistentFlags().String("runs", "runs", "root directory for batch run metadata")

	batchCmd.AddCommand(batchSubmitCmd)
	batchCmd.AddCommand(batchRetrieveCmd)
	rootCmd.AddCommand(batchCmd)
}
