// Package detector provides face landmark detection interfaces, backends and
// the asynchronous adapter that feeds the overlay.
package detector

import (
	"sort"

	"github.com/ayusman/thuglens/internal/optional"
)

// LandmarkType names an anatomical point on a face. Left and right are from
// the subject's point of view.
type LandmarkType string

const (
	LeftEye     LandmarkType = "LEFT_EYE"
	RightEye    LandmarkType = "RIGHT_EYE"
	LeftMouth   LandmarkType = "LEFT_MOUTH"
	RightMouth  LandmarkType = "RIGHT_MOUTH"
	BottomMouth LandmarkType = "BOTTOM_MOUTH"
	NoseBase    LandmarkType = "NOSE_BASE"
	LeftEar     LandmarkType = "LEFT_EAR"
	RightEar    LandmarkType = "RIGHT_EAR"
	LeftCheek   LandmarkType = "LEFT_CHEEK"
	RightCheek  LandmarkType = "RIGHT_CHEEK"
)

// Point is a 2D position in preview pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Face is one detected face. It is immutable once constructed.
type Face struct {
	landmarks map[LandmarkType]Point
	score     float64
}

// NewFace builds a Face from a landmark set. The map is copied.
func NewFace(score float64, landmarks map[LandmarkType]Point) Face {
	lm := make(map[LandmarkType]Point, len(landmarks))
	for k, v := range landmarks {
		lm[k] = v
	}
	return Face{landmarks: lm, score: score}
}

// Landmark looks up a landmark position. Detectors may omit any landmark.
func (f Face) Landmark(t LandmarkType) optional.Value[Point] {
	p, ok := f.landmarks[t]
	if !ok {
		return optional.None[Point]()
	}
	return optional.Some(p)
}

// Score is the detector confidence for this face.
func (f Face) Score() float64 {
	return f.score
}

// Types returns the landmark types present on the face, sorted.
func (f Face) Types() []LandmarkType {
	types := make([]LandmarkType, 0, len(f.landmarks))
	for t := range f.landmarks {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// First returns the first face of a detection result, or None for an empty one.
func First(faces []Face) optional.Value[Face] {
	if len(faces) == 0 {
		return optional.None[Face]()
	}
	return optional.Some(faces[0])
}
