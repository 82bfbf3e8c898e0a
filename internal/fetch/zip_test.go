package fetch

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scans.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		ew, err := w.Create(name)
		require.NoError(t, err)
		_, err = ew.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractZIP(t *testing.T) {
	t.Parallel()

	zipPath := makeZip(t, map[string]string{
		"p1.png":      "scan one",
		"1887/p2.png": "scan two",
	})
	dest := t.TempDir()

	files, err := ExtractZIP(zipPath, dest)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	data, err := os.ReadFile(filepath.Join(dest, "1887", "p2.png"))
	require.NoError(t, err)
	assert.Equal(t, "scan two", string(data))
}

func TestExtractZIPRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	zipPath := makeZip(t, map[string]string{"../evil.sh": "rm -rf"})
	dest := t.TempDir()

	_, err := ExtractZIP(zipPath, dest)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "evil.sh"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractZIPMissingArchive(t *testing.T) {
	t.Parallel()

	_, err := ExtractZIP(filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
	assert.Error(t, err)
}
