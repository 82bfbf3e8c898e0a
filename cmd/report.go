package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/blegdams/journal-cli/internal/aggregate"
	"github.com/blegdams/journal-cli/internal/model"
	"github.com/blegdams/journal-cli/internal/report"
	"github.com/blegdams/journal-cli/internal/valstore"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate validation logs into accuracy reports",
	Long:  "Reads validation logs (a file, a directory tree, or the configured store), computes per-field and per-category accuracy, and writes the report artifacts: text tables, CSV summary and SVG charts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		outDir, _ := cmd.Flags().GetString("out")
		minN, _ := cmd.Flags().GetInt("min-n")
		dedupe, _ := cmd.Flags().GetBool("dedupe")
		format, _ := cmd.Flags().GetString("format")

		var logs [][]model.FieldJudgment
		var err error
		if input != "" {
			logs, err = valstore.CollectLogs(input)
			if err != nil {
				return eris.Wrapf(err, "collect logs from %s", input)
			}
		} else {
			logs, err = storeLogs(cmd)
			if err != nil {
				return err
			}
		}

		res, err := aggregate.Aggregate(logs, aggregate.Options{
			MinN:          minN,
			DedupeRepeats: dedupe,
		})
		if err != nil {
			return err
		}

		switch format {
		case "table":
			fmt.Print(report.Render(res))
		case "csv":
			csvOut, err := report.RenderCSV(res)
			if err != nil {
				return err
			}
			fmt.Print(csvOut)
		default:
			return eris.Errorf("unsupported format: %s", format)
		}

		if outDir != "" {
			if err := report.Emit(res, outDir); err != nil {
				return err
			}
		}
		return nil
	},
}

// storeLogs reads every session's judgments from the configured store.
func storeLogs(cmd *cobra.Command) ([][]model.FieldJudgment, error) {
	ctx := cmd.Context()
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions in the store yet.")
	}

	logs := make([][]model.FieldJudgment, 0, len(sessions))
	for _, sess := range sessions {
		judgments, err := st.ReadLog(ctx, sess.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "read log for session %s", sess.ID)
		}
		logs = append(logs, judgments)
	}
	return logs, nil
}

func init() {
	reportCmd.Flags().String("input", "", "validation log file or directory (defaults to the configured store)")
	reportCmd.Flags().String("out", "report", "directory for report artifacts (empty to skip)")
	reportCmd.Flags().Int("min-n", 1, "minimum judgments for a field to appear")
	reportCmd.Flags().Bool("dedupe", false, "keep only the latest judgment per record, field and reviewer")
	reportCmd.Flags().String("format", "table", "stdout format: table or csv")
	rootCmd.AddCommand(reportCmd)
}
