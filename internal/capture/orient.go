package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DecodeMat converts a raw frame buffer into a BGR Mat.
// The caller is responsible for closing the returned Mat.
func DecodeMat(data []byte, width, height int, format PixelFormat) (gocv.Mat, error) {
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("decode %dx%d: invalid size", width, height)
	}
	if want := format.BufferSize(width, height); want == 0 {
		return gocv.NewMat(), fmt.Errorf("decode: %w: %v", ErrUnsupportedFormat, format)
	} else if len(data) < want {
		return gocv.NewMat(), fmt.Errorf("decode %v %dx%d: buffer has %d bytes, want %d", format, width, height, len(data), want)
	}

	switch format {
	case FormatBGR:
		src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("decode bgr: %w", err)
		}
		defer src.Close()
		// NewMatFromBytes aliases data; the clone owns its pixels.
		return src.Clone(), nil

	case FormatNV21:
		yuv, err := gocv.NewMatFromBytes(height*3/2, width, gocv.MatTypeCV8UC1, data)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("decode nv21: %w", err)
		}
		defer yuv.Close()

		bgr := gocv.NewMat()
		gocv.CvtColor(yuv, &bgr, gocv.ColorYUVToBGRNV21)
		return bgr, nil
	}

	return gocv.NewMat(), fmt.Errorf("decode: %w: %v", ErrUnsupportedFormat, format)
}

// Orient rotates src clockwise by quadrant*90 degrees so that it is upright
// on the display. The caller is responsible for closing the returned Mat.
func Orient(src gocv.Mat, quadrant int) gocv.Mat {
	dst := gocv.NewMat()

	switch quadrant & 3 {
	case 1:
		gocv.Rotate(src, &dst, gocv.Rotate90Clockwise)
	case 2:
		gocv.Rotate(src, &dst, gocv.Rotate180Clockwise)
	case 3:
		gocv.Rotate(src, &dst, gocv.Rotate90CounterClockwise)
	default:
		src.CopyTo(&dst)
	}

	return dst
}

// PreviewImage returns the frame as it is shown behind the overlay:
// upright for the given quadrant and mirrored horizontally, as a
// front-facing camera preview is.
func PreviewImage(src *gocv.Mat, quadrant int) (image.Image, error) {
	if src == nil || src.Empty() {
		return nil, fmt.Errorf("preview: empty frame")
	}

	upright := Orient(*src, quadrant)
	defer upright.Close()

	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(upright, &mirrored, 1)

	img, err := mirrored.ToImage()
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return img, nil
}

// Preview decodes f and returns it upright for quadrant and mirrored, as
// PreviewImage does for a Mat.
func (f Frame) Preview(quadrant int) (image.Image, error) {
	mat, err := DecodeMat(f.Data, f.Width, f.Height, f.Format)
	defer mat.Close()
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return PreviewImage(&mat, quadrant)
}
