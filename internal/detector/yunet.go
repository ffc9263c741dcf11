package detector

import (
	"fmt"
	"image"
	"os"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/thuglens/internal/capture"
)

// yunetLandmarks maps the landmark columns of a FaceDetectorYN result row
// (after the four bounding box columns) to landmark types.
var yunetLandmarks = [5]LandmarkType{RightEye, LeftEye, NoseBase, RightMouth, LeftMouth}

const (
	yunetNMSThreshold = 0.3
	yunetTopK         = 5000
	yunetScoreColumn  = 14
)

// YuNetDetector implements Detector using OpenCV's FaceDetectorYN.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex
}

// NewYuNetDetector loads the YuNet model named by cfg.ModelPath.
func NewYuNetDetector(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("yunet model: %w", err)
	}

	// Input size is reset for every frame.
	d := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(capture.DefaultWidth, capture.DefaultHeight),
		float32(cfg.ScoreThreshold),
		yunetNMSThreshold,
		yunetTopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: d,
		config:   cfg,
	}, nil
}

// Detect decodes the request, turns it upright and returns faces with the
// five YuNet landmarks, highest score first.
func (d *YuNetDetector) Detect(req Request) ([]Face, error) {
	raw, err := capture.DecodeMat(req.Data, req.Width, req.Height, req.Format)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	img := capture.Orient(raw, req.Quadrant)
	defer img.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	out := gocv.NewMat()
	defer out.Close()
	d.detector.Detect(img, &out)

	faces := make([]Face, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		landmarks := make(map[LandmarkType]Point, len(yunetLandmarks))
		for i, t := range yunetLandmarks {
			landmarks[t] = Point{
				X: float64(out.GetFloatAt(r, 4+2*i)),
				Y: float64(out.GetFloatAt(r, 5+2*i)),
			}
		}
		faces = append(faces, NewFace(float64(out.GetFloatAt(r, yunetScoreColumn)), landmarks))
	}

	sortByScore(faces)
	return faces, nil
}

// Close releases the detector resources.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

// sortByScore orders faces by descending score, keeping ties stable.
func sortByScore(faces []Face) {
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].score > faces[j].score })
}
