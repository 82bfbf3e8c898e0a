package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 120, B: 140, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func decodeOutput(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestProcessResizesOversizedScans(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, 400, 200)
	data, mime, err := Process(path, Options{MaxDim: 100})
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	img := decodeOutput(t, data)
	assert.Equal(t, 100, img.Bounds().Dx(), "longest side capped")
	assert.Equal(t, 50, img.Bounds().Dy(), "aspect ratio preserved")
}

func TestProcessLeavesSmallScansAlone(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, 80, 40)
	data, _, err := Process(path, Options{MaxDim: 100})
	require.NoError(t, err)

	img := decodeOutput(t, data)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestProcessJPEGOutput(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, 20, 20)
	data, mime, err := Process(path, Options{Format: "jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestProcessContrast(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, 10, 10)
	flat, _, err := Process(path, Options{})
	require.NoError(t, err)
	boosted, _, err := Process(path, Options{ContrastFactor: 1.5})
	require.NoError(t, err)
	assert.NotEqual(t, flat, boosted, "a non-unit contrast factor changes pixels")
}

func TestProcessMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := Process(filepath.Join(t.TempDir(), "nope.png"), Options{})
	assert.Error(t, err)
}
