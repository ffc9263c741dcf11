package display

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// ErrNoFrame is returned when a snapshot is requested before anything has
// been composed.
var ErrNoFrame = errors.New("no frame composed yet")

// EncodeSnapshot writes img to w as lossless WebP.
func EncodeSnapshot(w io.Writer, img image.Image) error {
	if img == nil {
		return ErrNoFrame
	}
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}

// SaveSnapshot writes the latest composed frame to path, creating parent
// directories. It returns the frame that was written.
func (c *Compositor) SaveSnapshot(path string) (*Frame, error) {
	frame := c.Latest()
	if frame == nil {
		return nil, ErrNoFrame
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	if err := EncodeSnapshot(f, frame.Image); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close snapshot: %w", err)
	}
	return frame, nil
}
