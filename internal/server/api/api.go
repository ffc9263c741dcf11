// Package api provides the JSON HTTP handlers for accessories, the overlay
// toggle and snapshots.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/thuglens/internal/overlay"
	"github.com/ayusman/thuglens/internal/store"
)

// AccessoryController changes which overlays are drawn.
type AccessoryController interface {
	Accessories() []overlay.AccessoryStatus
	SetAccessoryEnabled(name string, enabled bool) error
	OverlayEnabled() bool
	SetOverlayEnabled(enabled bool) error
}

// SnapshotTaker saves the current composed frame.
type SnapshotTaker interface {
	TakeSnapshot() (*store.Snapshot, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeLayout = time.RFC3339

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
