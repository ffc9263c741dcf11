package detector

import (
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/ayusman/thuglens/internal/capture"
	"github.com/ayusman/thuglens/internal/optional"
)

// DefaultCapacity is the number of detections allowed in flight at once.
const DefaultCapacity = 2

// FaceHandler receives the first face of every successful detection, or
// None when the detection succeeded but found no face.
type FaceHandler func(face optional.Value[Face])

// Adapter runs detections off the caller's goroutine.
//
// Results are delivered in completion order, not submission order. A failed
// detection delivers nothing, so whatever the handler last received stays
// in effect. When capacity detections are already running new frames are
// dropped rather than queued.
type Adapter struct {
	detector Detector
	format   capture.PixelFormat
	slots    *semaphore.Weighted
	onFace   FaceHandler
	log      logrus.FieldLogger
	wg       sync.WaitGroup
}

// NewAdapter wraps d. Every request carries the given pixel format.
func NewAdapter(d Detector, format capture.PixelFormat, capacity int, onFace FaceHandler, log logrus.FieldLogger) *Adapter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Adapter{
		detector: d,
		format:   format,
		slots:    semaphore.NewWeighted(int64(capacity)),
		onFace:   onFace,
		log:      log.WithField("component", "detector"),
	}
}

// Submit starts an asynchronous detection and returns immediately. The
// buffer is copied before Submit returns, so the caller may reuse it.
// It reports whether the frame was accepted.
func (a *Adapter) Submit(data []byte, width, height, quadrant int) bool {
	if !a.slots.TryAcquire(1) {
		a.log.WithField("quadrant", quadrant).Debug("detector busy, frame dropped")
		return false
	}

	req := Request{
		Data:     append([]byte(nil), data...),
		Width:    width,
		Height:   height,
		Format:   a.format,
		Quadrant: quadrant,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.slots.Release(1)

		faces, err := a.detector.Detect(req)
		if err != nil {
			a.log.WithError(err).Warn("detection failed")
			return
		}

		a.log.WithField("faces", len(faces)).Trace("detection complete")
		a.onFace(First(faces))
	}()

	return true
}

// Wait blocks until every accepted detection has completed.
func (a *Adapter) Wait() {
	a.wg.Wait()
}
