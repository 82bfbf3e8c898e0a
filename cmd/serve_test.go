package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsHandler(t *testing.T) {
	t.Parallel()

	logsDir := t.TempDir()
	log := `{"file_name":"p1.png","column_name":"patient.name","label":"accept","dataset_file":"d.jsonl","validator_id":"m","decided_at":"2026-08-30T10:00:00Z"}
{"file_name":"p2.png","column_name":"patient.name","label":"reject","dataset_file":"d.jsonl","validator_id":"m","decided_at":"2026-08-30T10:01:00Z"}
`
	require.NoError(t, os.WriteFile(filepath.Join(logsDir, "validations.jsonl"), []byte(log), 0o644))

	handler := statsHandler(logsDir)

	t.Run("aggregates the logs", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Judgments int `json:"judgments"`
			Overall   struct {
				Accuracy float64 `json:"accuracy"`
			} `json:"overall"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Judgments)
		assert.InDelta(t, 0.5, body.Overall.Accuracy, 1e-9)
	})

	t.Run("min_n filters fields", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/stats?min_n=3", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Fields []any `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Empty(t, body.Fields)
	})

	t.Run("bad min_n rejected", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/stats?min_n=zero", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing logs dir is a server error", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		statsHandler(filepath.Join(logsDir, "nope"))(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
