// Package preprocess prepares scanned page images for model calls:
// bounded resize, optional contrast boost, re-encode to a known format.
package preprocess

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/image/draw"
)

// Options controls preprocessing. Zero values mean "leave unchanged".
type Options struct {
	// MaxDim caps the longest image dimension; larger scans are scaled
	// down proportionally.
	MaxDim int
	// ContrastFactor stretches contrast around mid-grey; 1.0 is a
	// no-op. Faded ink benefits from a slight boost.
	ContrastFactor float64
	// Format is the re-encode target: png (default) or jpeg.
	Format string
}

// Process loads, resizes, contrast-adjusts and re-encodes one image.
// It returns the encoded bytes and their MIME type.
func Process(path string, opts Options) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", eris.Wrapf(err, "preprocess: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, "", eris.Wrapf(err, "preprocess: decode %s", path)
	}

	img := toRGBA(src)
	img = resize(img, opts.MaxDim)
	if opts.ContrastFactor != 0 && opts.ContrastFactor != 1.0 {
		adjustContrast(img, opts.ContrastFactor)
	}

	return encode(img, opts.Format)
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Copy(dst, b.Min, src, b, draw.Src, nil)
	return dst
}

// resize scales the image down so its longest side is at most maxDim.
// Images already within bounds pass through untouched.
func resize(img *image.RGBA, maxDim int) *image.RGBA {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// adjustContrast stretches each channel around mid-grey in place.
func adjustContrast(img *image.RGBA, factor float64) {
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := (float64(pix[i+c])-128)*factor + 128
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			pix[i+c] = uint8(v)
		}
	}
}

func encode(img *image.RGBA, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "", "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", eris.Wrap(err, "preprocess: encode png")
		}
		return buf.Bytes(), "image/png", nil
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, "", eris.Wrap(err, "preprocess: encode jpeg")
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		return nil, "", eris.Errorf("preprocess: unsupported output format %q", format)
	}
}
