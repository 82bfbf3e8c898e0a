package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/blegdams/journal-cli/internal/model"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// statsTable renders field stats as an aligned text table.
func statsTable(title string, stats []model.FieldStat) string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Field,
			fmt.Sprintf("%d", s.Samples),
			fmt.Sprintf("%d", s.Agreements),
			fmt.Sprintf("%.3f", s.Accuracy),
		})
	}
	return title + "\n" + renderTable(
		[]string{"field", "n", "agree", "accuracy"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	)
}

// SessionsTable renders a session listing for the sessions command.
func SessionsTable(sessions []model.Session) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		closed := ""
		if !s.ClosedAt.IsZero() {
			closed = s.ClosedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			s.ID,
			s.Reviewer,
			s.Dataset,
			s.StartedAt.Format("2006-01-02 15:04"),
			closed,
			fmt.Sprintf("%d", s.Judgments),
		})
	}
	return renderTable(
		[]string{"session", "reviewer", "dataset", "started", "closed", "judgments"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
