package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/thuglens/internal/app"
	"github.com/ayusman/thuglens/internal/capture"
	"github.com/ayusman/thuglens/internal/config"
	"github.com/ayusman/thuglens/internal/detector"
	"github.com/ayusman/thuglens/internal/logging"
	"github.com/ayusman/thuglens/internal/server"
	"github.com/ayusman/thuglens/internal/store"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.DetectorKind = detector.KindMock
	cfg.DisplayWidth = 320
	cfg.DisplayHeight = 240
	cfg.FPS = 30

	s, err := store.New(cfg.DBPath())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	det := detector.NewMockDetector()
	det.SetFaces([]detector.Face{detector.FrontalFace()})

	a, err := app.New(app.Options{
		Config:   cfg,
		Store:    s,
		Camera:   capture.NewMockCamera(capture.FormatBGR, true, capture.BlankFrame(640, 480, 0)),
		Detector: det,
		Log:      logging.Discard(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer a.Close()

	srv := server.New(server.Config{Store: s, Frames: a.Compositor(), Controller: a})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	t.Run("PlacementsFeed", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/placements"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()

		deadline := time.Now().Add(5 * time.Second)
		conn.SetReadDeadline(deadline)
		for {
			var msg server.PlacementsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("no frame with both accessories: %v", err)
			}
			if msg.Face && len(msg.Placements) == 2 {
				if msg.Width != 320 || msg.Height != 240 {
					t.Errorf("frame size = %dx%d", msg.Width, msg.Height)
				}
				return
			}
		}
	})

	t.Run("DisableAccessory", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/accessories/cigarette", bytes.NewBufferString(`{"enabled": false}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		resp, err = client.Get(ts.URL + "/api/accessories")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		defer resp.Body.Close()

		var list struct {
			Accessories []struct {
				Name    string `json:"name"`
				Enabled bool   `json:"enabled"`
			} `json:"accessories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("decode: %v", err)
		}
		for _, acc := range list.Accessories {
			if acc.Name == "cigarette" && acc.Enabled {
				t.Error("cigarette should be disabled")
			}
		}

		stored, err := s.Accessories().Get("cigarette")
		if err != nil || stored.Enabled {
			t.Errorf("stored cigarette = %+v, %v", stored, err)
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/snapshots", "application/json", nil)
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var snap struct {
			ID       string `json:"id"`
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			t.Fatalf("decode: %v", err)
		}

		img, err := client.Get(ts.URL + snap.ImageURL)
		if err != nil {
			t.Fatalf("GET image error = %v", err)
		}
		defer img.Body.Close()
		if img.StatusCode != http.StatusOK || img.Header.Get("Content-Type") != "image/webp" {
			t.Errorf("image status = %d, type = %q", img.StatusCode, img.Header.Get("Content-Type"))
		}
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		defer resp.Body.Close()

		var health map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if health["status"] != "ok" {
			t.Errorf("health = %v", health)
		}
		if _, ok := health["frame"]; !ok {
			t.Error("health should report the latest frame")
		}
	})

	a.Stop()
}
