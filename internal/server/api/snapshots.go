package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/ayusman/thuglens/internal/display"
	"github.com/ayusman/thuglens/internal/store"
)

// SnapshotHandler handles /api/snapshots and /api/snapshots/{id}[/image].
type SnapshotHandler struct {
	store *store.Store
	taker SnapshotTaker
}

// NewSnapshotHandler creates a SnapshotHandler.
func NewSnapshotHandler(s *store.Store, taker SnapshotTaker) *SnapshotHandler {
	return &SnapshotHandler{store: s, taker: taker}
}

type snapshotResponse struct {
	ID         string `json:"id"`
	HadFace    bool   `json:"had_face"`
	Placements int    `json:"placements"`
	ImageURL   string `json:"image_url"`
	CreatedAt  string `json:"created_at"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotResponse `json:"snapshots"`
}

func toSnapshotResponse(s *store.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:         s.ID,
		HadFace:    s.HadFace,
		Placements: s.Placements,
		ImageURL:   "/api/snapshots/" + s.ID + "/image",
		CreatedAt:  s.CreatedAt.Format(timeLayout),
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/image"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.image(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, path)
	case http.MethodDelete:
		h.delete(w, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/snapshots?limit=N, newest first.
func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	snaps, err := h.store.Snapshots().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	response := listSnapshotsResponse{
		Snapshots: make([]snapshotResponse, 0, len(snaps)),
	}
	for _, s := range snaps {
		response.Snapshots = append(response.Snapshots, toSnapshotResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/snapshots by saving the current frame.
func (h *SnapshotHandler) create(w http.ResponseWriter) {
	snap, err := h.taker.TakeSnapshot()
	if err != nil {
		if errors.Is(err, display.ErrNoFrame) {
			writeError(w, http.StatusConflict, "No frame available yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to take snapshot")
		return
	}

	writeJSON(w, http.StatusCreated, toSnapshotResponse(snap))
}

func (h *SnapshotHandler) get(w http.ResponseWriter, id string) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	writeJSON(w, http.StatusOK, toSnapshotResponse(snap))
}

// image serves the snapshot's WebP file.
func (h *SnapshotHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	http.ServeFile(w, r, snap.Path)
}

// delete removes the record and its image file.
func (h *SnapshotHandler) delete(w http.ResponseWriter, id string) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	if err := h.store.Snapshots().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}
	if err := os.Remove(snap.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot image")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
