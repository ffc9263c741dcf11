package server

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/thuglens/internal/display"
)

// JPEGQuality is the quality of frames sent on the MJPEG stream.
const JPEGQuality = 80

// StreamHandler serves composed frames as MJPEG.
type StreamHandler struct {
	frames FrameSource
	log    logrus.FieldLogger
}

// NewStreamHandler creates a new StreamHandler reading from frames.
func NewStreamHandler(frames FrameSource, log logrus.FieldLogger) *StreamHandler {
	return &StreamHandler{frames: frames, log: log}
}

// ServeHTTP streams a JPEG part for every composed frame until the client
// goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var sent uint64
	for {
		updated := h.frames.Updated()

		if frame := h.frames.Latest(); frame != nil && frame.Seq != sent {
			if err := writePart(w, frame); err != nil {
				h.log.WithError(err).Debug("stream closed")
				return
			}
			sent = frame.Seq
		}

		select {
		case <-r.Context().Done():
			return
		case <-updated:
		}
	}
}

func writePart(w http.ResponseWriter, frame *display.Frame) error {
	data, err := EncodeJPEG(frame)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "--frame\r\n")
	fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
	if _, err := w.Write(data); err != nil {
		return err
	}
	fmt.Fprintf(w, "\r\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// EncodeJPEG encodes a composed frame with OpenCV.
func EncodeJPEG(frame *display.Frame) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
