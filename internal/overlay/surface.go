package overlay

import (
	"image"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Surface is a drawable display target.
type Surface interface {
	// Size returns the current surface dimensions in pixels.
	Size() (width, height int)
	// DrawBitmap stretches the whole of bitmap into dst. dst corners may
	// be in either order.
	DrawBitmap(bitmap image.Image, dst image.Rectangle)
}

// ImageSurface draws into an in-memory image.
type ImageSurface struct {
	dst    draw.Image
	scaler xdraw.Scaler
}

// NewImageSurface wraps dst. A nil scaler selects bilinear scaling.
func NewImageSurface(dst draw.Image, scaler xdraw.Scaler) *ImageSurface {
	if scaler == nil {
		scaler = xdraw.ApproxBiLinear
	}
	return &ImageSurface{dst: dst, scaler: scaler}
}

// Size implements Surface.
func (s *ImageSurface) Size() (int, int) {
	b := s.dst.Bounds()
	return b.Dx(), b.Dy()
}

// DrawBitmap implements Surface. Zero-area rectangles and nil bitmaps
// draw nothing.
func (s *ImageSurface) DrawBitmap(bitmap image.Image, dst image.Rectangle) {
	r := dst.Canon().Add(s.dst.Bounds().Min)
	if bitmap == nil || r.Empty() {
		return
	}
	s.scaler.Scale(s.dst, r, bitmap, bitmap.Bounds(), xdraw.Over, nil)
}

// DrawCall is one recorded DrawBitmap invocation.
type DrawCall struct {
	Bitmap image.Image
	Rect   image.Rectangle
}

// RecordingSurface records draw calls instead of drawing. Used by tests.
type RecordingSurface struct {
	Width  int
	Height int

	mu    sync.Mutex
	calls []DrawCall
}

// NewRecordingSurface returns a recording surface of the given size.
func NewRecordingSurface(width, height int) *RecordingSurface {
	return &RecordingSurface{Width: width, Height: height}
}

// Size implements Surface.
func (s *RecordingSurface) Size() (int, int) {
	return s.Width, s.Height
}

// DrawBitmap implements Surface.
func (s *RecordingSurface) DrawBitmap(bitmap image.Image, dst image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, DrawCall{Bitmap: bitmap, Rect: dst})
}

// Calls returns the recorded draw calls.
func (s *RecordingSurface) Calls() []DrawCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DrawCall(nil), s.calls...)
}

// Reset clears recorded calls.
func (s *RecordingSurface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
