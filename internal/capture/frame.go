package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// PixelFormat tags the layout of a frame buffer.
type PixelFormat int

const (
	// FormatNV21 is a single-plane YUV 4:2:0 buffer: a full luma plane
	// followed by interleaved V/U samples. Buffer size is w*h*3/2.
	FormatNV21 PixelFormat = iota + 1
	// FormatBGR is packed 8-bit BGR, as produced by OpenCV. Buffer size is w*h*3.
	FormatBGR
)

// ErrUnsupportedFormat is returned for pixel formats that cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

// String returns the lower-case format name.
func (f PixelFormat) String() string {
	switch f {
	case FormatNV21:
		return "nv21"
	case FormatBGR:
		return "bgr"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// BufferSize returns the expected buffer length for a w x h frame.
func (f PixelFormat) BufferSize(width, height int) int {
	switch f {
	case FormatNV21:
		return width * height * 3 / 2
	case FormatBGR:
		return width * height * 3
	}
	return 0
}

// Frame is a single captured frame in native sensor orientation.
// Width and Height are never swapped for rotation; RotationDegrees carries
// the sensor-to-display offset instead.
type Frame struct {
	Data            []byte
	Format          PixelFormat
	Width           int
	Height          int
	RotationDegrees int
	Timestamp       int64
}

// HasSize reports whether the frame carries usable dimensions and pixels.
func (f Frame) HasSize() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Data) > 0
}

// FrameFromMat copies a BGR Mat into a Frame. The Mat may be closed
// afterwards.
func FrameFromMat(mat *gocv.Mat, rotationDegrees int, timestamp int64) (Frame, error) {
	if mat == nil || mat.Empty() {
		return Frame{}, errors.New("empty mat")
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return Frame{}, fmt.Errorf("%w: mat type %v", ErrUnsupportedFormat, mat.Type())
	}

	return Frame{
		Data:            mat.ToBytes(),
		Format:          FormatBGR,
		Width:           mat.Cols(),
		Height:          mat.Rows(),
		RotationDegrees: rotationDegrees,
		Timestamp:       timestamp,
	}, nil
}
