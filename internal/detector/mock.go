package detector

import (
	"sync"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	faces    []Face
	err      error
	hook     func(Request)
	requests []Request
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetHook registers a function called at the start of every Detect, before
// the result is chosen. Tests use it to block or reorder detections.
func (m *MockDetector) SetHook(fn func(Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Requests returns a copy of every request seen so far.
func (m *MockDetector) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(req Request) ([]Face, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FrontalFace returns a preset face looking straight at a 640x480 camera,
// with eyes and mouth corners present.
func FrontalFace() Face {
	return NewFace(0.98, map[LandmarkType]Point{
		LeftEye:     {X: 360, Y: 200},
		RightEye:    {X: 280, Y: 200},
		NoseBase:    {X: 320, Y: 250},
		LeftMouth:   {X: 350, Y: 300},
		RightMouth:  {X: 290, Y: 300},
		BottomMouth: {X: 320, Y: 315},
	})
}

// MouthOnlyFace returns a preset face whose eyes are occluded.
func MouthOnlyFace() Face {
	return NewFace(0.71, map[LandmarkType]Point{
		LeftMouth:  {X: 350, Y: 300},
		RightMouth: {X: 290, Y: 300},
	})
}
