package app

import (
	"time"

	"github.com/ayusman/thuglens/internal/capture"
	"github.com/ayusman/thuglens/internal/gate"
)

// runCapture grabs frames at the configured rate and feeds them through
// the gate. Grabbing never waits for detection.
func (a *App) runCapture(stop <-chan struct{}) {
	defer a.wg.Done()

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame, err := a.camera.Grab()
			if err != nil {
				a.log.WithError(err).Debug("frame grab failed")
				continue
			}
			a.ProcessFrame(frame)
		}
	}
}

// ProcessFrame runs one captured frame through the pipeline: the preview
// image goes to the compositor, then the gate publishes the preview size
// and submits the frame for detection. The frame is not retained.
func (a *App) ProcessFrame(frame capture.Frame) {
	if quadrant, err := gate.Quadrant(frame.RotationDegrees); err == nil && frame.HasSize() {
		preview, err := frame.Preview(quadrant)
		if err != nil {
			a.log.WithError(err).Debug("preview skipped")
		} else {
			a.compositor.SetPreview(preview)
		}
	}

	if err := a.gate.Process(frame); err != nil {
		a.log.WithError(err).Debug("frame skipped")
	}
}

// runRedraw composes a display frame whenever the overlay state changes.
func (a *App) runRedraw(stop <-chan struct{}) {
	defer a.wg.Done()

	redraws := a.engine.Redraws()
	for {
		select {
		case <-stop:
			return
		case <-redraws:
			a.compositor.Compose()
		}
	}
}
