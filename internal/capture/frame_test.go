package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestPixelFormat_String(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   string
	}{
		{FormatNV21, "nv21"},
		{FormatBGR, "bgr"},
		{PixelFormat(99), "PixelFormat(99)"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPixelFormat_BufferSize(t *testing.T) {
	if got := FormatNV21.BufferSize(640, 480); got != 460800 {
		t.Errorf("NV21 BufferSize = %d, want 460800", got)
	}
	if got := FormatBGR.BufferSize(640, 480); got != 921600 {
		t.Errorf("BGR BufferSize = %d, want 921600", got)
	}
	if got := PixelFormat(99).BufferSize(640, 480); got != 0 {
		t.Errorf("unknown BufferSize = %d, want 0", got)
	}
}

func TestFrame_HasSize(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{"complete", Frame{Data: []byte{1}, Width: 640, Height: 480}, true},
		{"zero width", Frame{Data: []byte{1}, Width: 0, Height: 480}, false},
		{"negative height", Frame{Data: []byte{1}, Width: 640, Height: -1}, false},
		{"no pixels", Frame{Width: 640, Height: 480}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.HasSize(); got != tt.want {
				t.Errorf("HasSize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameFromMat(t *testing.T) {
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()

	frame, err := FrameFromMat(&mat, 90, 42)
	if err != nil {
		t.Fatalf("FrameFromMat() error = %v", err)
	}

	if frame.Width != 640 || frame.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480 (native, not rotated)", frame.Width, frame.Height)
	}
	if frame.RotationDegrees != 90 || frame.Timestamp != 42 {
		t.Errorf("metadata = %d/%d", frame.RotationDegrees, frame.Timestamp)
	}
	if frame.Format != FormatBGR || len(frame.Data) != FormatBGR.BufferSize(640, 480) {
		t.Errorf("format %v with %d bytes", frame.Format, len(frame.Data))
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := FrameFromMat(&empty, 0, 0); err == nil {
		t.Error("FrameFromMat() on empty mat should fail")
	}
}

func TestDecodeMat(t *testing.T) {
	t.Run("bgr", func(t *testing.T) {
		data := make([]byte, FormatBGR.BufferSize(4, 2))
		mat, err := DecodeMat(data, 4, 2, FormatBGR)
		if err != nil {
			t.Fatalf("DecodeMat() error = %v", err)
		}
		defer mat.Close()
		if mat.Cols() != 4 || mat.Rows() != 2 {
			t.Errorf("size = %dx%d, want 4x2", mat.Cols(), mat.Rows())
		}
	})

	t.Run("nv21", func(t *testing.T) {
		data := make([]byte, FormatNV21.BufferSize(4, 2))
		mat, err := DecodeMat(data, 4, 2, FormatNV21)
		if err != nil {
			t.Fatalf("DecodeMat() error = %v", err)
		}
		defer mat.Close()
		if mat.Cols() != 4 || mat.Rows() != 2 || mat.Channels() != 3 {
			t.Errorf("got %dx%d with %d channels", mat.Cols(), mat.Rows(), mat.Channels())
		}
	})

	t.Run("short buffer", func(t *testing.T) {
		mat, err := DecodeMat(make([]byte, 3), 4, 2, FormatBGR)
		defer mat.Close()
		if err == nil {
			t.Error("expected error for short buffer")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		mat, err := DecodeMat(make([]byte, 64), 4, 2, PixelFormat(99))
		defer mat.Close()
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("error = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestOrient(t *testing.T) {
	src := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer src.Close()

	tests := []struct {
		quadrant int
		wantW    int
		wantH    int
	}{
		{0, 640, 480},
		{1, 480, 640},
		{2, 640, 480},
		{3, 480, 640},
	}

	for _, tt := range tests {
		dst := Orient(src, tt.quadrant)
		if dst.Cols() != tt.wantW || dst.Rows() != tt.wantH {
			t.Errorf("Orient(q=%d) = %dx%d, want %dx%d", tt.quadrant, dst.Cols(), dst.Rows(), tt.wantW, tt.wantH)
		}
		dst.Close()
	}
}

func TestPreviewImage(t *testing.T) {
	src := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer src.Close()

	img, err := PreviewImage(&src, 1)
	if err != nil {
		t.Fatalf("PreviewImage() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 640 {
		t.Errorf("bounds = %v, want 480x640", b)
	}

	if _, err := PreviewImage(nil, 0); err == nil {
		t.Error("PreviewImage(nil) should fail")
	}
}

func TestFrame_Preview(t *testing.T) {
	img, err := BlankFrame(640, 480, 90).Preview(1)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 640 {
		t.Errorf("bounds = %v, want 480x640", b)
	}

	if _, err := (Frame{Format: FormatBGR, Width: 4, Height: 2}).Preview(0); err == nil {
		t.Error("Preview() of a frame without pixels should fail")
	}
}
