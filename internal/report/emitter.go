// Package report renders aggregate validation statistics to text
// tables, CSV summaries and SVG charts. Rendering is a pure function of
// the aggregate result; the only failures here are I/O failures.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/aggregate"
	"github.com/blegdams/journal-cli/internal/model"
)

// labelDisplay maps labels to the chart axis names.
var labelDisplay = map[model.Label]string{
	model.LabelAccept:         "Accept",
	model.LabelSomewhatAccept: "Somewhat Accept",
	model.LabelReject:         "Reject",
	model.LabelUnsure:         "Unsure",
	model.LabelCorrected:      "Corrected",
}

// Render produces the full text report: overall accuracy, per-field and
// top-level tables, and the label distribution.
func Render(res *aggregate.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Overall accuracy: %.3f (%d/%d judgments)\n\n",
		res.Overall.Accuracy, res.Overall.Agreements, res.Overall.Samples)

	labelRows := make([][]string, 0, len(model.Labels))
	for _, l := range model.Labels {
		labelRows = append(labelRows, []string{labelDisplay[l], strconv.Itoa(res.Labels[l])})
	}
	sb.WriteString("Label distribution\n")
	sb.WriteString(renderTable([]string{"label", "count"}, labelRows,
		[]columnAlignment{alignLeft, alignRight}))
	sb.WriteString("\n\n")

	sb.WriteString(statsTable("Top-level accuracy", res.TopLevel))
	sb.WriteString("\n\n")
	sb.WriteString(statsTable("Per-field accuracy", res.Fields))
	sb.WriteString("\n")
	return sb.String()
}

// Emit writes every report artifact into outDir: report.txt,
// summary.csv, and the chart set the analysis has always produced.
func Emit(res *aggregate.Result, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "report: create output dir %s", outDir)
	}

	if err := writeFile(outDir, "report.txt", Render(res)); err != nil {
		return err
	}
	if err := emitCSV(res, outDir); err != nil {
		return err
	}

	charts := []struct {
		name  string
		chart barChart
	}{
		{"label_distribution", labelChart(res)},
		{"overall_accuracy", barChart{
			Title:    "Overall Accuracy",
			MaxValue: 1,
			Bars:     []chartBar{{Label: "Overall", Value: res.Overall.Accuracy}},
		}},
		{"top_level_accuracy", accuracyChart("Top-Level Accuracy", res.TopLevel)},
	}
	for top, stats := range res.Nested {
		safe := strings.ReplaceAll(top, "/", "_")
		charts = append(charts, struct {
			name  string
			chart barChart
		}{"nested_accuracy_" + safe, accuracyChart("Accuracy for "+top+" Fields", stats)})
	}

	for _, c := range charts {
		if len(c.chart.Bars) == 0 {
			zap.L().Debug("skipping empty chart", zap.String("chart", c.name))
			continue
		}
		svg, err := c.chart.render()
		if err != nil {
			return err
		}
		if err := writeFile(outDir, c.name+".svg", svg); err != nil {
			return err
		}
	}

	zap.L().Info("report written",
		zap.String("dir", outDir),
		zap.Int("fields", len(res.Fields)),
		zap.Int("judgments", res.Judgments),
	)
	return nil
}

func labelChart(res *aggregate.Result) barChart {
	c := barChart{Title: "Label Distribution"}
	for _, l := range model.Labels {
		c.Bars = append(c.Bars, chartBar{
			Label:     labelDisplay[l],
			Value:     float64(res.Labels[l]),
			ValueText: strconv.Itoa(res.Labels[l]),
		})
	}
	return c
}

func accuracyChart(title string, stats []model.FieldStat) barChart {
	c := barChart{Title: title, MaxValue: 1}
	for _, s := range stats {
		c.Bars = append(c.Bars, chartBar{
			Label:     s.Field,
			Value:     s.Accuracy,
			ValueText: fmt.Sprintf("%.2f", s.Accuracy),
		})
	}
	return c
}

func emitCSV(res *aggregate.Result, outDir string) error {
	f, err := os.Create(filepath.Join(outDir, "summary.csv"))
	if err != nil {
		return eris.Wrap(err, "report: create summary.csv")
	}
	defer f.Close() //nolint:errcheck
	return writeCSV(res, f)
}

// RenderCSV produces the per-field summary in CSV form.
func RenderCSV(res *aggregate.Result) (string, error) {
	var sb strings.Builder
	if err := writeCSV(res, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeCSV(res *aggregate.Result, out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"field", "samples", "agreements", "accuracy"}); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, s := range res.Fields {
		row := []string{
			s.Field,
			strconv.Itoa(s.Samples),
			strconv.Itoa(s.Agreements),
			strconv.FormatFloat(s.Accuracy, 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

func writeFile(dir, name, content string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", name)
	}
	return nil
}
