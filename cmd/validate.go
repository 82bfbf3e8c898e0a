package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/dataset"
	"github.com/blegdams/journal-cli/internal/session"
	"github.com/blegdams/journal-cli/internal/valstore"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Review a transcription dataset field by field",
	Long:  "Walks every record of a transcription dataset, resolving each page scan and asking for a verdict per field. Judgments are appended to the validation store as they are made.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		user, _ := cmd.Flags().GetString("user")
		images, _ := cmd.Flags().GetString("images")
		results, _ := cmd.Flags().GetString("results")
		corrections, _ := cmd.Flags().GetBool("corrections")
		shuffle, _ := cmd.Flags().GetBool("shuffle")
		seed, _ := cmd.Flags().GetUint64("seed")

		records, err := dataset.Load(results)
		if err != nil {
			return eris.Wrapf(err, "load dataset %s", results)
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "Dataset is empty, nothing to validate.")
			return nil
		}

		index, err := dataset.BuildImageIndex(images)
		if err != nil {
			return eris.Wrapf(err, "index images %s", images)
		}
		zap.L().Info("dataset loaded",
			zap.Int("records", len(records)),
			zap.Int("images", index.Len()),
		)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		schema, err := loadSchema()
		if err != nil {
			return err
		}

		prompter := session.NewTerminalPrompter(os.Stdin, os.Stdout, corrections)
		sess := session.New(session.Config{
			Reviewer:    user,
			DatasetFile: results,
			Corrections: corrections,
			Shuffle:     shuffle,
			Seed:        seed,
		}, st, schema, index, prompter)

		summary, err := sess.Run(ctx, records)
		if err != nil {
			var werr *valstore.WriteError
			if errors.As(err, &werr) {
				fmt.Fprintf(os.Stderr, "Validation store became unwritable (%s); judgments made so far are preserved.\n", werr.Target)
			}
			return err
		}

		fmt.Printf("\nSession %s closed: %d judgments over %d records (%d skipped).\n",
			summary.SessionID, summary.Judgments, summary.RecordsSeen, summary.RecordsSkipped)
		if summary.EndedEarly {
			fmt.Println("Session ended early; the partial log is valid for aggregation.")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().String("user", "", "reviewer identity recorded with every judgment")
	validateCmd.Flags().String("images", "", "root directory of page scans")
	validateCmd.Flags().String("results", "", "transcription dataset (.jsonl or .csv)")
	validateCmd.Flags().Bool("corrections", false, "allow entering corrected values")
	validateCmd.Flags().Bool("shuffle", false, "review records in seeded random order")
	validateCmd.Flags().Uint64("seed", 0, "shuffle seed (0 picks one and logs it)")
	_ = validateCmd.MarkFlagRequired("user")
	_ = validateCmd.MarkFlagRequired("images")
	_ = validateCmd.MarkFlagRequired("results")
	rootCmd.AddCommand(validateCmd)
}
