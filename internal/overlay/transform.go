package overlay

import "math"

// Transform maps preview-space coordinates onto a display surface.
// The display is mirrored horizontally relative to the preview, as a
// front-facing camera preview is; it is not mirrored vertically.
type Transform struct {
	SurfaceWidth float64
	ScaleX       float64
	ScaleY       float64
}

// NewTransform derives the scale factors for one draw. Preview dimensions
// must be positive.
func NewTransform(surfaceWidth, surfaceHeight, previewWidth, previewHeight int) Transform {
	return Transform{
		SurfaceWidth: float64(surfaceWidth),
		ScaleX:       float64(surfaceWidth) / float64(previewWidth),
		ScaleY:       float64(surfaceHeight) / float64(previewHeight),
	}
}

// TranslateX maps a preview x coordinate to display space.
func (t Transform) TranslateX(x float64) float64 {
	return t.SurfaceWidth - x*t.ScaleX
}

// TranslateY maps a preview y coordinate to display space.
func (t Transform) TranslateY(y float64) float64 {
	return y * t.ScaleY
}

func round(v float64) int {
	return int(math.Round(v))
}
