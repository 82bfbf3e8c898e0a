package transcribe

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/blegdams/journal-cli/internal/dataset"
	"github.com/blegdams/journal-cli/internal/model"
)

// WriteJSONL writes one JSON object per record to path. This is the
// dataset format the validation session reads back.
func WriteJSONL(path string, recs []model.TranscriptionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "transcribe: create dataset file")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range recs {
		if err := enc.Encode(rec.Fields); err != nil {
			return eris.Wrap(err, "transcribe: write dataset record")
		}
	}
	if err := f.Sync(); err != nil {
		return eris.Wrap(err, "transcribe: sync dataset file")
	}
	return nil
}

// WriteXLSX writes the records as a flat spreadsheet, one column per
// dot path seen across the dataset.
func WriteXLSX(path string, recs []model.TranscriptionRecord) error {
	cols := collectColumns(recs)

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("transcriptions")
	if err != nil {
		return eris.Wrap(err, "transcribe: add sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("file_name")
	for _, c := range cols {
		header.AddCell().SetString(c)
	}

	for _, rec := range recs {
		values := make(map[string]string)
		for _, ff := range dataset.Flatten(rec) {
			values[ff.Path] = dataset.FormatValue(ff.Value)
		}
		row := sheet.AddRow()
		row.AddCell().SetString(rec.FileName)
		for _, c := range cols {
			row.AddCell().SetString(values[c])
		}
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrap(err, "transcribe: save workbook")
	}
	return nil
}

// collectColumns returns the sorted union of flattened dot paths.
func collectColumns(recs []model.TranscriptionRecord) []string {
	seen := make(map[string]bool)
	for _, rec := range recs {
		for _, ff := range dataset.Flatten(rec) {
			seen[ff.Path] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for c := range seen {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
