package assets

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func TestLoad_PNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.RGBA{R: 200, A: 255})

	path := filepath.Join(t.TempDir(), "glasses.PNG")
	writePNG(t, path, src)

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v, want 3x2", b)
	}
	if got := img.NRGBAAt(1, 1); got.R != 200 || got.A != 255 {
		t.Errorf("pixel = %v", got)
	}
}

func TestLoad_JPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cigarette.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.NRGBAAt(0, 0).A != 255 {
		t.Error("JPEG pixels should be opaque")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(garbage, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"unsupported extension", filepath.Join(dir, "glasses.bmp")},
		{"missing file", filepath.Join(dir, "missing.png")},
		{"corrupt file", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadOr(t *testing.T) {
	img, err := LoadOr("", DefaultGlasses)
	if err != nil {
		t.Fatalf("LoadOr(\"\") error = %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Error("empty path should return the fallback bitmap")
	}

	if _, err := LoadOr("/nonexistent/glasses.png", DefaultGlasses); err == nil {
		t.Error("a configured but missing path should fail, not fall back")
	}
}

func TestDefaultBitmaps(t *testing.T) {
	glasses := DefaultGlasses()
	if glasses.NRGBAAt(16, 10).A != 255 {
		t.Error("glasses lens should be opaque")
	}
	if glasses.NRGBAAt(32, 10).A != 0 {
		t.Error("gap between lenses should be transparent")
	}

	cig := DefaultCigarette()
	if b := cig.Bounds(); b.Dx() != b.Dy() {
		t.Errorf("cigarette bitmap should be square, got %v", b)
	}
	if cig.NRGBAAt(10, 16).A != 255 || cig.NRGBAAt(10, 2).A != 0 {
		t.Error("cigarette should be a horizontal band")
	}
}
