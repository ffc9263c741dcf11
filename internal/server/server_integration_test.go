package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/thuglens/internal/overlay"
)

func TestPlacementsWebSocket(t *testing.T) {
	frames := newFakeFrames()
	frames.publish(testFrame(1))

	ts := httptest.NewServer(New(Config{Frames: frames}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/placements"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first PlacementsMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first message: %v", err)
	}
	if first.Frame != 1 || first.Face || len(first.Placements) != 0 {
		t.Errorf("first message = %+v, want the current frame without a face", first)
	}

	frames.publish(testFrame(2, overlay.Placement{Accessory: overlay.NameGlasses}))

	var second PlacementsMessage
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second message: %v", err)
	}
	if second.Frame != 2 || !second.Face || len(second.Placements) != 1 {
		t.Errorf("second message = %+v", second)
	}
	if second.Placements[0].Accessory != overlay.NameGlasses {
		t.Errorf("accessory = %q", second.Placements[0].Accessory)
	}
}

func TestStream_MJPEG(t *testing.T) {
	frames := newFakeFrames()
	frames.publish(testFrame(1))

	ts := httptest.NewServer(New(Config{Frames: frames}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	boundary, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if boundary != "--frame\r\n" {
		t.Errorf("boundary = %q", boundary)
	}
	partType, _ := r.ReadString('\n')
	if partType != "Content-Type: image/jpeg\r\n" {
		t.Errorf("part header = %q", partType)
	}
}

func TestStream_MethodNotAllowed(t *testing.T) {
	s := New(Config{Frames: newFakeFrames()})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stream", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
