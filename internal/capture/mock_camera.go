package capture

import (
	"errors"
	"sync"
)

// ErrScriptDone is returned by a non-looping MockCamera after its last frame.
var ErrScriptDone = errors.New("mock camera: script exhausted")

// MockCamera replays a script of frames. Each scripted frame keeps its own
// size and rotation, so one script can walk through several orientations.
type MockCamera struct {
	mu     sync.Mutex
	format PixelFormat
	script []Frame
	next   int
	loop   bool
	fps    int
	open   bool
	grabs  int
}

// NewMockCamera creates a camera that yields frames in order, tagged with
// format. With loop set the script restarts after the last frame.
func NewMockCamera(format PixelFormat, loop bool, frames ...Frame) *MockCamera {
	return &MockCamera{
		format: format,
		script: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

// BlankFrame returns a black BGR frame of the given native size.
func BlankFrame(width, height, rotationDegrees int) Frame {
	return Frame{
		Data:            make([]byte, FormatBGR.BufferSize(width, height)),
		Format:          FormatBGR,
		Width:           width,
		Height:          height,
		RotationDegrees: rotationDegrees,
	}
}

// Open rewinds the script.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// Grab returns the next scripted frame with its own copy of the buffer.
// Frames without a timestamp are stamped with their 1-based grab count.
func (c *MockCamera) Grab() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return Frame{}, ErrCameraNotOpen
	}
	if c.next >= len(c.script) {
		if !c.loop || len(c.script) == 0 {
			return Frame{}, ErrScriptDone
		}
		c.next = 0
	}

	f := c.script[c.next]
	c.next++
	c.grabs++

	f.Data = append([]byte(nil), f.Data...)
	f.Format = c.format
	if f.Timestamp == 0 {
		f.Timestamp = int64(c.grabs)
	}
	return f, nil
}

func (c *MockCamera) Format() PixelFormat {
	return c.format
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Grabs returns how many frames have been handed out.
func (c *MockCamera) Grabs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grabs
}
