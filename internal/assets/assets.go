// Package assets loads accessory bitmaps.
package assets

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"
)

// decoders is keyed by lower-case file extension. TGA has no magic number,
// so formats are chosen by extension rather than sniffed.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".webp": webp.Decode,
	".tga":  tga.Decode,
}

// Load reads a bitmap file and returns it as NRGBA.
func Load(path string) (*image.NRGBA, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("assets: unsupported file type %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", path, err)
	}

	return toNRGBA(img), nil
}

// LoadOr loads path, or returns fallback when path is empty.
func LoadOr(path string, fallback func() *image.NRGBA) (*image.NRGBA, error) {
	if path == "" {
		return fallback(), nil
	}
	return Load(path)
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// DefaultGlasses draws pixel-art sunglasses: two dark lenses joined by a
// bridge, with a highlight on each lens.
func DefaultGlasses() *image.NRGBA {
	const w, h = 64, 16
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	frame := color.NRGBA{A: 255}
	shine := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	fill(img, image.Rect(0, 2, w, 5), frame)
	fill(img, image.Rect(4, 5, 28, 13), frame)
	fill(img, image.Rect(36, 5, 60, 13), frame)
	fill(img, image.Rect(8, 6, 12, 8), shine)
	fill(img, image.Rect(40, 6, 44, 8), shine)

	return img
}

// DefaultCigarette draws a horizontal cigarette across the middle of a
// square bitmap: filter on the right, burning tip on the left.
func DefaultCigarette() *image.NRGBA {
	const size = 32
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	fill(img, image.Rect(4, 14, 24, 18), color.NRGBA{R: 245, G: 245, B: 240, A: 255})
	fill(img, image.Rect(24, 14, 32, 18), color.NRGBA{R: 214, G: 140, B: 60, A: 255})
	fill(img, image.Rect(0, 14, 4, 18), color.NRGBA{R: 230, G: 60, B: 20, A: 255})

	return img
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}
