// Package dataset loads model-generated transcription datasets and
// resolves their source images. Records are treated as immutable input.
package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/blegdams/journal-cli/internal/model"
)

// Columns present in the dataset that carry no page content and are
// never put in front of a reviewer.
var excludedColumns = map[string]bool{
	"generation_seconds": true,
	"file_name":          true,
}

// MalformedRecordError marks a dataset record that cannot be validated:
// it is missing its image reference or carries no reviewable fields.
// Sessions skip the record with a warning and continue.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("dataset: malformed record at line %d: %s", e.Line, e.Reason)
}

// Load reads a transcription dataset. JSONL files hold one JSON-encoded
// record per line (blank lines skipped); CSV files use '$' as the
// separator with dot-path column headers. Individual malformed lines
// fail the load: the dataset is produced mechanically upstream, so a
// broken line means a broken file.
func Load(path string) ([]model.TranscriptionRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return loadJSONL(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, eris.Errorf("dataset: unsupported format %q", filepath.Ext(path))
	}
}

func loadJSONL(path string) ([]model.TranscriptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open")
	}
	defer f.Close() //nolint:errcheck

	var records []model.TranscriptionRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil, eris.Wrapf(err, "dataset: decode line %d", line)
		}
		records = append(records, recordFromFields(fields))
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: scan")
	}
	return records, nil
}

func loadCSV(path string) ([]model.TranscriptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.Comma = '$'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv")
	}
	if len(rows) < 1 {
		return nil, nil
	}
	header := rows[0]

	var records []model.TranscriptionRecord
	for _, row := range rows[1:] {
		fields := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				fields[col] = row[i]
			}
		}
		records = append(records, recordFromFields(fields))
	}
	return records, nil
}

func recordFromFields(fields map[string]any) model.TranscriptionRecord {
	rec := model.TranscriptionRecord{Fields: fields}
	if name, ok := fields["file_name"].(string); ok {
		rec.FileName = filepath.Base(name)
	}
	return rec
}

// FlatField is one reviewable leaf value of a record.
type FlatField struct {
	Path  string
	Value any
}

// Flatten walks a record's nested fields into dot-path leaves, in
// sorted path order. Nulls, containers (lists, nested objects are
// descended into but list values are not expanded) and non-content
// columns are excluded, matching what a reviewer can actually judge
// against the page.
func Flatten(rec model.TranscriptionRecord) []FlatField {
	flat := make(map[string]any)
	flattenInto(flat, "", rec.Fields)

	paths := make([]string, 0, len(flat))
	for p := range flat {
		if excludedColumns[p] {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]FlatField, 0, len(paths))
	for _, p := range paths {
		out = append(out, FlatField{Path: p, Value: flat[p]})
	}
	return out
}

func flattenInto(dst map[string]any, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenInto(dst, key, child)
		}
	case nil:
		// Absent optional field.
	case []any:
		// List fields stay whole; they are not presented field-by-field.
	default:
		if prefix != "" {
			dst[prefix] = val
		}
	}
}

// FormatValue renders a field value the way the reviewer sees it.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; keep integers clean.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
