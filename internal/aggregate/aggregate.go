// Package aggregate computes per-field accuracy statistics over one or
// more validation logs. Statistics are derived on demand and never
// persisted as a source of truth.
package aggregate

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/blegdams/journal-cli/internal/model"
)

// Options configures an aggregation pass.
type Options struct {
	// MinN is the minimum sample count for a field to appear in the
	// output. A hard filter: sub-threshold fields are absent entirely.
	MinN int

	// DedupeRepeats keeps only the latest judgment per
	// (record, field, reviewer) across all input logs. Off by default:
	// repeat judgments count as independent re-reviews.
	DedupeRepeats bool
}

// Result is the outcome of one aggregation pass.
type Result struct {
	// Fields holds per-field accuracy, min-n filtered, ordered by
	// accuracy descending then field ascending.
	Fields []model.FieldStat `json:"fields"`

	// TopLevel rolls fields up by their first dot segment, min-n
	// filtered, same ordering.
	TopLevel []model.FieldStat `json:"top_level"`

	// Nested groups the per-field stats by top-level segment.
	Nested map[string][]model.FieldStat `json:"nested"`

	// Labels counts judgments per label, unfiltered.
	Labels map[model.Label]int `json:"labels"`

	// Overall is accuracy across every judgment, unfiltered.
	Overall model.FieldStat `json:"overall"`

	// Judgments is the total number of judgments aggregated (after
	// dedupe, when enabled).
	Judgments int `json:"judgments"`
}

// labelFold normalizes label text from logs written by older tool
// versions that capitalized labels.
var labelFold = cases.Fold()

// Aggregate computes accuracy statistics over the given logs. The
// result depends only on the set of judgments and the options, not on
// log read order. Empty input yields an empty result, never an error.
func Aggregate(logs [][]model.FieldJudgment, opts Options) (*Result, error) {
	if opts.MinN < 1 {
		return nil, eris.Errorf("aggregate: min-n must be >= 1, got %d", opts.MinN)
	}

	judgments := flatten(logs)
	if opts.DedupeRepeats {
		judgments = dedupe(judgments)
	}

	res := &Result{
		Nested: make(map[string][]model.FieldStat),
		Labels: make(map[model.Label]int),
	}

	fields := make(map[string]*bucket)
	topLevel := make(map[string]*bucket)

	for _, j := range judgments {
		label := model.Label(labelFold.String(string(j.Label)))
		res.Labels[label]++
		res.Overall.Samples++

		agree := label.Agreement()
		if agree {
			res.Overall.Agreements++
		}

		fb := fields[j.Field]
		if fb == nil {
			fb = &bucket{}
			fields[j.Field] = fb
		}
		top := topSegment(j.Field)
		tb := topLevel[top]
		if tb == nil {
			tb = &bucket{}
			topLevel[top] = tb
		}
		fb.samples++
		tb.samples++
		if agree {
			fb.agreements++
			tb.agreements++
		}
	}

	res.Judgments = res.Overall.Samples
	if res.Overall.Samples > 0 {
		res.Overall.Accuracy = float64(res.Overall.Agreements) / float64(res.Overall.Samples)
	}
	res.Overall.Field = "overall"

	res.Fields = collect(fields, opts.MinN)
	res.TopLevel = collect(topLevel, opts.MinN)
	for _, fs := range res.Fields {
		top := topSegment(fs.Field)
		res.Nested[top] = append(res.Nested[top], fs)
	}
	return res, nil
}

func flatten(logs [][]model.FieldJudgment) []model.FieldJudgment {
	var all []model.FieldJudgment
	for _, log := range logs {
		all = append(all, log...)
	}
	return all
}

// dedupe keeps the latest judgment per (record, field, reviewer).
// DecidedAt ties resolve on judgment content, never on input position,
// so the survivor set does not depend on log read order.
func dedupe(judgments []model.FieldJudgment) []model.FieldJudgment {
	latest := make(map[model.JudgmentKey]model.FieldJudgment, len(judgments))
	for _, j := range judgments {
		prev, seen := latest[j.Key()]
		if !seen || supersedes(j, prev) {
			latest[j.Key()] = j
		}
	}
	out := make([]model.FieldJudgment, 0, len(latest))
	for _, j := range latest {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		a, b := out[i], out[k]
		if a.RecordID != b.RecordID {
			return a.RecordID < b.RecordID
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Reviewer < b.Reviewer
	})
	return out
}

// supersedes reports whether a replaces b as the kept judgment for a
// key. Later DecidedAt wins; equal timestamps fall back to a total
// order over label and corrected value.
func supersedes(a, b model.FieldJudgment) bool {
	if !a.DecidedAt.Equal(b.DecidedAt) {
		return a.DecidedAt.After(b.DecidedAt)
	}
	if a.Label != b.Label {
		return a.Label > b.Label
	}
	return correctedText(a) > correctedText(b)
}

func correctedText(j model.FieldJudgment) string {
	if j.CorrectedValue == nil {
		return ""
	}
	return *j.CorrectedValue
}

type bucket struct {
	samples    int
	agreements int
}

func collect(buckets map[string]*bucket, minN int) []model.FieldStat {
	stats := make([]model.FieldStat, 0, len(buckets))
	for field, b := range buckets {
		if b.samples < minN {
			continue
		}
		stats = append(stats, model.FieldStat{
			Field:      field,
			Samples:    b.samples,
			Agreements: b.agreements,
			Accuracy:   float64(b.agreements) / float64(b.samples),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Accuracy != stats[j].Accuracy {
			return stats[i].Accuracy > stats[j].Accuracy
		}
		return stats[i].Field < stats[j].Field
	})
	return stats
}

func topSegment(field string) string {
	if i := strings.Index(field, "."); i > 0 {
		return field[:i]
	}
	return field
}
