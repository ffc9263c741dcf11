// Package gate normalises captured frames for the overlay and hands them to
// the detector.
package gate

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/thuglens/internal/capture"
)

// ErrMalformedFrame is returned for frames that cannot be processed.
var ErrMalformedFrame = errors.New("malformed frame")

// PreviewSink receives the effective preview size of every accepted frame.
type PreviewSink interface {
	UpdatePreviewSize(width, height int)
}

// Submitter starts detection on a frame buffer without blocking.
type Submitter interface {
	Submit(data []byte, width, height, quadrant int) bool
}

// Gate is the entry point of the per-frame pipeline.
type Gate struct {
	sink      PreviewSink
	submitter Submitter
	log       logrus.FieldLogger
}

// New creates a Gate.
func New(sink PreviewSink, submitter Submitter, log logrus.FieldLogger) *Gate {
	return &Gate{
		sink:      sink,
		submitter: submitter,
		log:       log.WithField("component", "gate"),
	}
}

// Quadrant converts a rotation in degrees to a quarter-turn count 0-3.
// Rotations are taken modulo 360; values that are not a multiple of 90 are
// rejected.
func Quadrant(rotationDegrees int) (int, error) {
	deg := ((rotationDegrees % 360) + 360) % 360
	if deg%90 != 0 {
		return 0, fmt.Errorf("%w: rotation %d is not a multiple of 90", ErrMalformedFrame, rotationDegrees)
	}
	return deg / 90, nil
}

// EffectivePreviewSize returns the preview dimensions as the display sees
// them: unchanged for quadrants 0 and 2, swapped for 1 and 3.
func EffectivePreviewSize(width, height, quadrant int) (int, int) {
	if quadrant%2 == 0 {
		return width, height
	}
	return height, width
}

// Process publishes the frame's effective preview size and submits it for
// detection. Malformed frames are dropped with nothing published. The frame
// buffer is not retained after Process returns.
func (g *Gate) Process(f capture.Frame) error {
	if !f.HasSize() {
		g.log.WithFields(logrus.Fields{"width": f.Width, "height": f.Height}).Debug("frame without size dropped")
		return fmt.Errorf("%w: no size", ErrMalformedFrame)
	}

	quadrant, err := Quadrant(f.RotationDegrees)
	if err != nil {
		g.log.WithError(err).Debug("frame dropped")
		return err
	}

	g.sink.UpdatePreviewSize(EffectivePreviewSize(f.Width, f.Height, quadrant))
	g.submitter.Submit(f.Data, f.Width, f.Height, quadrant)

	return nil
}
