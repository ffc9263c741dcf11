package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/thuglens/internal/display"
)

const wsWriteTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Rect is a placement rectangle with normalised corners.
type Rect struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// PlacementJSON is one accessory in a placements message.
type PlacementJSON struct {
	Accessory string `json:"accessory"`
	Rect      Rect   `json:"rect"`
}

// PlacementsMessage is sent for every composed frame.
type PlacementsMessage struct {
	Frame      uint64          `json:"frame"`
	Face       bool            `json:"face"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Placements []PlacementJSON `json:"placements"`
	Timestamp  int64           `json:"timestamp"`
}

func newPlacementsMessage(frame *display.Frame) PlacementsMessage {
	b := frame.Image.Bounds()
	msg := PlacementsMessage{
		Frame:      frame.Seq,
		Face:       frame.HasFace,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Placements: make([]PlacementJSON, 0, len(frame.Placements)),
		Timestamp:  frame.At.UnixMilli(),
	}
	for _, p := range frame.Placements {
		r := p.Rect.Canon()
		msg.Placements = append(msg.Placements, PlacementJSON{
			Accessory: p.Accessory,
			Rect:      Rect{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y},
		})
	}
	return msg
}

// PlacementsHandler pushes accessory placements over WebSocket.
type PlacementsHandler struct {
	frames FrameSource
	log    logrus.FieldLogger
}

// NewPlacementsHandler creates a new PlacementsHandler reading from frames.
func NewPlacementsHandler(frames FrameSource, log logrus.FieldLogger) *PlacementsHandler {
	return &PlacementsHandler{frames: frames, log: log}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PlacementsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reading detects the client closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var sent uint64
	for {
		updated := h.frames.Updated()

		if frame := h.frames.Latest(); frame != nil && frame.Seq != sent {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(newPlacementsMessage(frame)); err != nil {
				h.log.WithError(err).Debug("placements client gone")
				return
			}
			sent = frame.Seq
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-updated:
		}
	}
}
