package overlay

import (
	"image"

	"github.com/ayusman/thuglens/internal/detector"
	"github.com/ayusman/thuglens/internal/optional"
)

// Built-in accessory names.
const (
	NameGlasses   = "glasses"
	NameCigarette = "cigarette"
)

// PlaceFunc computes where an accessory goes on a face, or None when the
// landmarks it needs are missing.
//
// The returned rectangle keeps corner order as computed: Min is the first
// corner and Max the second, so it may be inverted. Surfaces canonicalise
// it before drawing.
type PlaceFunc func(face detector.Face, t Transform) optional.Value[image.Rectangle]

// Accessory is a bitmap plus the rule that places it.
type Accessory struct {
	Name   string
	Bitmap image.Image
	Place  PlaceFunc
}

// Glasses returns the glasses accessory drawn with bitmap.
func Glasses(bitmap image.Image) Accessory {
	return Accessory{Name: NameGlasses, Bitmap: bitmap, Place: PlaceGlasses}
}

// Cigarette returns the held-at-mouth accessory drawn with bitmap.
func Cigarette(bitmap image.Image) Accessory {
	return Accessory{Name: NameCigarette, Bitmap: bitmap, Place: PlaceAtMouth}
}

type landmarkPair = optional.Pair[detector.Point, detector.Point]

func landmarks(face detector.Face, a, b detector.LandmarkType) optional.Value[landmarkPair] {
	return optional.Zip(face.Landmark(a), face.Landmark(b))
}

// PlaceGlasses spans both eyes, padded by half the eye distance on every
// side. Needs LEFT_EYE and RIGHT_EYE.
func PlaceGlasses(face detector.Face, t Transform) optional.Value[image.Rectangle] {
	return optional.Map(landmarks(face, detector.LeftEye, detector.RightEye), func(eyes landmarkPair) image.Rectangle {
		left, right := eyes.First, eyes.Second
		delta := round(t.ScaleX * (left.X - right.X) / 2)

		return image.Rectangle{
			Min: image.Pt(round(t.TranslateX(left.X))-delta, round(t.TranslateY(left.Y))-delta),
			Max: image.Pt(round(t.TranslateX(right.X))+delta, round(t.TranslateY(right.Y))+delta),
		}
	})
}

// PlaceAtMouth puts a mouth-width square hanging from the left mouth corner.
// Needs LEFT_MOUTH and RIGHT_MOUTH.
func PlaceAtMouth(face detector.Face, t Transform) optional.Value[image.Rectangle] {
	return optional.Map(landmarks(face, detector.LeftMouth, detector.RightMouth), func(mouth landmarkPair) image.Rectangle {
		left, right := mouth.First, mouth.Second
		length := round((left.X - right.X) * t.ScaleX)
		x := round(t.TranslateX(left.X))
		y := round(t.TranslateY(left.Y))

		return image.Rectangle{
			Min: image.Pt(x-length, y),
			Max: image.Pt(x, y+length),
		}
	})
}
