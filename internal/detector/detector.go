package detector

import (
	"fmt"

	"github.com/ayusman/thuglens/internal/capture"
)

// Request is a single detection request. Data is owned by the request.
// Quadrant is the rotation in units of 90 degrees (0-3), not degrees.
// Landmark positions are returned in the upright image, i.e. the frame
// rotated clockwise by Quadrant*90 degrees.
type Request struct {
	Data     []byte
	Width    int
	Height   int
	Format   capture.PixelFormat
	Quadrant int
}

// Detector defines the interface for face landmark detection implementations.
type Detector interface {
	// Detect analyzes a frame and returns detected faces, ordered by the
	// backend's preference. Returns an empty slice if no faces are found.
	Detect(req Request) ([]Face, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Backend kinds accepted by New.
const (
	KindYuNet   = "yunet"
	KindProcess = "process"
	KindMock    = "mock"
)

// Config holds configuration options for face detection.
type Config struct {
	// Kind selects the backend: "yunet", "process" or "mock".
	Kind string

	// ModelPath is the YuNet ONNX model.
	ModelPath string

	// ScoreThreshold is the minimum face confidence (0.0-1.0).
	ScoreThreshold float64

	// Command and Args start the external landmark service for "process".
	Command string
	Args    []string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Kind:           KindYuNet,
		ModelPath:      "models/face_detection_yunet_2023mar.onnx",
		ScoreThreshold: 0.6,
	}
}

// New creates the detector backend selected by cfg.Kind.
func New(cfg Config) (Detector, error) {
	switch cfg.Kind {
	case KindYuNet:
		d, err := NewYuNetDetector(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindProcess:
		d, err := NewProcessDetector(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindMock:
		return NewMockDetector(), nil
	}
	return nil, fmt.Errorf("unknown detector kind %q", cfg.Kind)
}
