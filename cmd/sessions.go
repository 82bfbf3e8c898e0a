package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blegdams/journal-cli/internal/report"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List validation sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return nil
		}

		fmt.Println(report.SessionsTable(sessions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
