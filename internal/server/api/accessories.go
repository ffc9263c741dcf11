package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/thuglens/internal/overlay"
)

// AccessoryHandler handles /api/accessories and /api/accessories/{name}.
type AccessoryHandler struct {
	ctrl AccessoryController
}

// NewAccessoryHandler creates an AccessoryHandler.
func NewAccessoryHandler(ctrl AccessoryController) *AccessoryHandler {
	return &AccessoryHandler{ctrl: ctrl}
}

type listAccessoriesResponse struct {
	Accessories    []overlay.AccessoryStatus `json:"accessories"`
	OverlayEnabled bool                      `json:"overlay_enabled"`
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP implements the http.Handler interface.
func (h *AccessoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/accessories")
	name = strings.TrimPrefix(name, "/")

	if name == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, name)
	case http.MethodPut:
		h.update(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccessoryHandler) list(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, listAccessoriesResponse{
		Accessories:    h.ctrl.Accessories(),
		OverlayEnabled: h.ctrl.OverlayEnabled(),
	})
}

func (h *AccessoryHandler) get(w http.ResponseWriter, name string) {
	for _, a := range h.ctrl.Accessories() {
		if a.Name == name {
			writeJSON(w, http.StatusOK, a)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Accessory not found")
}

// update handles PUT /api/accessories/{name} with {"enabled": bool}.
func (h *AccessoryHandler) update(w http.ResponseWriter, r *http.Request, name string) {
	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := h.ctrl.SetAccessoryEnabled(name, *req.Enabled); err != nil {
		if errors.Is(err, overlay.ErrUnknownAccessory) {
			writeError(w, http.StatusNotFound, "Accessory not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update accessory")
		return
	}

	writeJSON(w, http.StatusOK, overlay.AccessoryStatus{Name: name, Enabled: *req.Enabled})
}

// OverlayHandler handles GET and PUT /api/overlay, the master switch for
// all accessories.
type OverlayHandler struct {
	ctrl AccessoryController
}

// NewOverlayHandler creates an OverlayHandler.
func NewOverlayHandler(ctrl AccessoryController) *OverlayHandler {
	return &OverlayHandler{ctrl: ctrl}
}

type overlayResponse struct {
	Enabled bool `json:"enabled"`
}

// ServeHTTP implements the http.Handler interface.
func (h *OverlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, overlayResponse{Enabled: h.ctrl.OverlayEnabled()})
	case http.MethodPut:
		var req setEnabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.ctrl.SetOverlayEnabled(*req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update overlay")
			return
		}
		writeJSON(w, http.StatusOK, overlayResponse{Enabled: *req.Enabled})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
