package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/model"
	"github.com/blegdams/journal-cli/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe page scans synchronously",
	Long:  "Sends each scan in the images directory to the model one at a time and writes the resulting dataset. For large archives prefer 'batch submit', which runs at half the price.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		images, _ := cmd.Flags().GetString("images")
		out, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		if format != "jsonl" && format != "xlsx" {
			return eris.Errorf("unsupported format: %s", format)
		}

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
		zap.L().Info("transcribing pages", zap.Int("pages", len(pages)))

		var records []model.TranscriptionRecord
		failed := 0
		for i, page := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := tr.Page(ctx, page)
			if err != nil {
				zap.L().Warn("page failed", zap.String("page", page), zap.Error(err))
				failed++
				continue
			}
			records = append(records, rec)
			fmt.Printf("[%d/%d] %s\n", i+1, len(pages), rec.FileName)
		}

		if format == "xlsx" {
			err = transcribe.WriteXLSX(out, records)
		} else {
			err = transcribe.WriteJSONL(out, records)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %d records to %s (%d pages failed).\n", len(records), out, failed)
		return nil
	},
}

func init() {
	transcribeCmd.Flags().String("images", "images", "root directory of page scans")
	transcribeCmd.Flags().String("out", "transcriptions.jsonl", "output dataset path")
	transcribeCmd.Flags().Int("limit", 0, "max pages to transcribe (0 for all)")
	transcribeCmd.Flags().String("format", "jsonl", "output format: jsonl or xlsx")
	rootCmd.AddCommand(transcribeCmd)
}
