// Package capture reads camera frames and decodes them with GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Default device settings.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when grabbing from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device delivered nothing.
	ErrNoFrame = errors.New("camera delivered no frame")
)

// Camera produces frames in native sensor orientation. Every frame is tagged
// with the rotation that turns it upright on the display, and every frame of
// a camera shares one pixel format.
type Camera interface {
	Open() error
	Close() error
	Grab() (Frame, error)
	Format() PixelFormat
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// DeviceConfig describes a local video device.
type DeviceConfig struct {
	ID     int
	Width  int
	Height int
	FPS    int
	// Rotation is the clockwise turn, in degrees, from sensor to display.
	Rotation int
}

// device is a Camera backed by gocv.VideoCapture. It always yields BGR.
type device struct {
	cfg DeviceConfig

	mu  sync.Mutex
	vc  *gocv.VideoCapture
	buf gocv.Mat
	now func() time.Time
}

// NewCamera returns a Camera for cfg. Non-positive sizes fall back to
// 640x480 and a non-positive rate to DefaultFPS. The device is not opened.
func NewCamera(cfg DeviceConfig) Camera {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	return &device{cfg: cfg, now: time.Now}
}

func (d *device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(d.cfg.ID)
	if err != nil {
		return fmt.Errorf("open device %d: %w", d.cfg.ID, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(d.cfg.FPS))

	d.vc = vc
	d.buf = gocv.NewMat()
	return nil
}

func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil
	}
	d.buf.Close()
	err := d.vc.Close()
	d.vc = nil
	return err
}

// Grab reads the next image into the device's scratch Mat and copies it
// out as a Frame, so nothing the caller holds aliases OpenCV memory.
func (d *device) Grab() (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return Frame{}, ErrCameraNotOpen
	}
	if !d.vc.Read(&d.buf) || d.buf.Empty() {
		return Frame{}, ErrNoFrame
	}
	return FrameFromMat(&d.buf, d.cfg.Rotation, d.now().UnixMilli())
}

func (d *device) Format() PixelFormat {
	return FormatBGR
}

// SetFPS changes the capture rate. Non-positive values are ignored.
func (d *device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg.FPS = fps
	if d.vc != nil {
		d.vc.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (d *device) FPS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.FPS
}

func (d *device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vc != nil
}
