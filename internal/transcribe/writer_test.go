package transcribe

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/blegdams/journal-cli/internal/dataset"
	"github.com/blegdams/journal-cli/internal/model"
)

func testRecords() []model.TranscriptionRecord {
	return []model.TranscriptionRecord{
		{
			FileName: "p1.png",
			Fields: map[string]any{
				"file_name": "p1.png",
				"is_dead":   true,
				"patient":   map[string]any{"name": "Jens Hansen"},
			},
		},
		{
			FileName: "p2.png",
			Fields: map[string]any{
				"file_name": "p2.png",
				"is_dead":   false,
				"patient":   map[string]any{"name": "Karen Olsen", "sex": "K"},
			},
		},
	}
}

func TestWriteJSONLRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, WriteJSONL(path, testRecords()))

	loaded, err := dataset.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "p1.png", loaded[0].FileName)
	patient, ok := loaded[1].Fields["patient"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Karen Olsen", patient["name"])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, testRecords()))

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	sheet := wb.Sheets[0]
	assert.Equal(t, "transcriptions", sheet.Name)
	require.Len(t, sheet.Rows, 3, "header plus one row per record")

	header := make([]string, 0, len(sheet.Rows[0].Cells))
	for _, c := range sheet.Rows[0].Cells {
		header = append(header, c.String())
	}
	assert.Equal(t, []string{"file_name", "is_dead", "patient.name", "patient.sex"}, header,
		"columns are the sorted union of dot paths")

	assert.Equal(t, "p1.png", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "", sheet.Rows[1].Cells[3].String(), "missing fields stay blank")
	assert.Equal(t, "K", sheet.Rows[2].Cells[3].String())
}
