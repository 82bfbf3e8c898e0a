package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blegdams/journal-cli/internal/model"
)

func TestImageIndex(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "1887", "april"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "p1.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "1887", "april", "p2.png"), []byte("x"), 0o644))
	// Same basename deeper in the tree; the first hit wins.
	require.NoError(t, os.WriteFile(filepath.Join(root, "1887", "p1.png"), []byte("x"), 0o644))

	idx, err := BuildImageIndex(root)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	t.Run("resolves top-level image", func(t *testing.T) {
		t.Parallel()
		path, err := idx.Resolve(model.TranscriptionRecord{FileName: "p1.png"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "p1.png"), path)
	})

	t.Run("resolves nested image by basename", func(t *testing.T) {
		t.Parallel()
		path, err := idx.Resolve(model.TranscriptionRecord{FileName: "scans/p2.png"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "1887", "april", "p2.png"), path)
	})

	t.Run("unknown image is a ResolutionError", func(t *testing.T) {
		t.Parallel()
		_, err := idx.Resolve(model.TranscriptionRecord{FileName: "p99.png"})
		var rerr *ResolutionError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "p99.png", rerr.FileName)
	})

	t.Run("missing file_name is a MalformedRecordError", func(t *testing.T) {
		t.Parallel()
		_, err := idx.Resolve(model.TranscriptionRecord{})
		var merr *MalformedRecordError
		assert.True(t, errors.As(err, &merr))
	})
}

func TestBuildImageIndexMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := BuildImageIndex(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
