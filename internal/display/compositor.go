// Package display composes the camera preview with the overlay.
package display

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/ayusman/thuglens/internal/overlay"
)

// Frame is one composed display frame. Image must not be modified.
type Frame struct {
	Seq        uint64
	Image      *image.RGBA
	Placements []overlay.Placement
	HasFace    bool
	At         time.Time
}

// Compositor scales the most recent preview image to the display size and
// draws the overlay on top.
type Compositor struct {
	engine *overlay.Engine
	width  int
	height int
	log    logrus.FieldLogger

	preview     atomic.Pointer[image.Image]
	showOverlay atomic.Bool

	mu      sync.Mutex
	seq     uint64
	latest  *Frame
	updated chan struct{}
}

// NewCompositor creates a compositor producing width x height frames.
// The overlay starts enabled.
func NewCompositor(engine *overlay.Engine, width, height int, log logrus.FieldLogger) *Compositor {
	c := &Compositor{
		engine:  engine,
		width:   width,
		height:  height,
		log:     log.WithField("component", "display"),
		updated: make(chan struct{}),
	}
	c.showOverlay.Store(true)
	return c
}

// Size returns the display dimensions.
func (c *Compositor) Size() (int, int) {
	return c.width, c.height
}

// SetPreview replaces the background image used by the next Compose.
func (c *Compositor) SetPreview(img image.Image) {
	c.preview.Store(&img)
}

// SetOverlayEnabled turns the whole overlay on or off.
func (c *Compositor) SetOverlayEnabled(enabled bool) {
	c.showOverlay.Store(enabled)
}

// OverlayEnabled reports whether the overlay is drawn.
func (c *Compositor) OverlayEnabled() bool {
	return c.showOverlay.Load()
}

// Compose draws a new frame and wakes everyone waiting on Updated.
func (c *Compositor) Compose() *Frame {
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))

	if p := c.preview.Load(); p != nil && *p != nil {
		src := *p
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	var (
		placements []overlay.Placement
		state      overlay.State
	)
	if c.showOverlay.Load() {
		placements, state = c.engine.Render(overlay.NewImageSurface(dst, nil))
	} else {
		state = c.engine.State()
	}

	c.mu.Lock()
	c.seq++
	frame := &Frame{
		Seq:        c.seq,
		Image:      dst,
		Placements: placements,
		HasFace:    state.Face.IsSome(),
		At:         time.Now(),
	}
	c.latest = frame
	close(c.updated)
	c.updated = make(chan struct{})
	c.mu.Unlock()

	c.log.WithField("placements", len(placements)).Trace("frame composed")
	return frame
}

// Latest returns the most recently composed frame, or nil before the
// first Compose.
func (c *Compositor) Latest() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Updated returns a channel that is closed by the next Compose.
func (c *Compositor) Updated() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updated
}
