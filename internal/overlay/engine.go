// Package overlay places and draws accessory bitmaps on detected faces.
package overlay

import (
	"errors"
	"image"
	"sync/atomic"

	"github.com/ayusman/thuglens/internal/detector"
	"github.com/ayusman/thuglens/internal/optional"
)

// ErrUnknownAccessory is returned when an accessory name is not registered.
var ErrUnknownAccessory = errors.New("unknown accessory")

// State is one published render state. It is never mutated after being
// published; setters build a new State and swap it in.
type State struct {
	Face          optional.Value[detector.Face]
	PreviewWidth  optional.Value[int]
	PreviewHeight optional.Value[int]
}

// Placement is one accessory positioned on the display.
type Placement struct {
	Accessory string          `json:"accessory"`
	Rect      image.Rectangle `json:"rect"`
	Bitmap    image.Image     `json:"-"`
}

// AccessoryStatus reports a registered accessory and whether it is drawn.
type AccessoryStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Engine owns the overlay state and turns it into draw commands.
//
// Update and UpdatePreviewSize may be called from any goroutine. Render
// reads a single snapshot and holds no lock while drawing.
type Engine struct {
	accessories []Accessory
	enabled     []atomic.Bool
	state       atomic.Pointer[State]
	redraw      chan struct{}
}

// NewEngine creates an engine drawing the given accessories in order.
// All accessories start enabled.
func NewEngine(accessories ...Accessory) *Engine {
	e := &Engine{
		accessories: accessories,
		enabled:     make([]atomic.Bool, len(accessories)),
		redraw:      make(chan struct{}, 1),
	}
	for i := range e.enabled {
		e.enabled[i].Store(true)
	}
	e.state.Store(&State{})
	return e
}

// Update replaces the current face. None clears the overlay.
func (e *Engine) Update(face optional.Value[detector.Face]) {
	e.publish(func(s *State) {
		s.Face = face
	})
}

// UpdatePreviewSize replaces the effective preview dimensions. Non-positive
// dimensions are stored as absent.
func (e *Engine) UpdatePreviewSize(width, height int) {
	w, h := optional.None[int](), optional.None[int]()
	if width > 0 && height > 0 {
		w, h = optional.Some(width), optional.Some(height)
	}

	e.publish(func(s *State) {
		s.PreviewWidth = w
		s.PreviewHeight = h
	})
}

// publish swaps in a modified copy of the current state and asks for a
// redraw. The CAS loop keeps concurrent setters from dropping each
// other's fields.
func (e *Engine) publish(mutate func(*State)) {
	for {
		old := e.state.Load()
		next := *old
		mutate(&next)
		if e.state.CompareAndSwap(old, &next) {
			break
		}
	}
	e.requestRedraw()
}

func (e *Engine) requestRedraw() {
	select {
	case e.redraw <- struct{}{}:
	default:
	}
}

// Redraws delivers a value whenever the state changed since the last
// receive. Pending requests are coalesced.
func (e *Engine) Redraws() <-chan struct{} {
	return e.redraw
}

// State returns the current snapshot.
func (e *Engine) State() State {
	return *e.state.Load()
}

// Placements computes where each enabled accessory goes on a surface of
// the given size. It returns nil when there is no face or no preview size.
func (e *Engine) Placements(surfaceWidth, surfaceHeight int) []Placement {
	return e.place(e.state.Load(), surfaceWidth, surfaceHeight)
}

func (e *Engine) place(s *State, surfaceWidth, surfaceHeight int) []Placement {
	face, ok := s.Face.Get()
	if !ok {
		return nil
	}
	pw, okW := s.PreviewWidth.Get()
	ph, okH := s.PreviewHeight.Get()
	if !okW || !okH {
		return nil
	}

	t := NewTransform(surfaceWidth, surfaceHeight, pw, ph)

	var placements []Placement
	for i, acc := range e.accessories {
		if !e.enabled[i].Load() {
			continue
		}
		if r, ok := acc.Place(face, t).Get(); ok {
			placements = append(placements, Placement{Accessory: acc.Name, Rect: r, Bitmap: acc.Bitmap})
		}
	}
	return placements
}

// Render draws every placed accessory onto surface. It returns the
// placements it drew together with the state they were computed from.
func (e *Engine) Render(surface Surface) ([]Placement, State) {
	s := e.state.Load()
	w, h := surface.Size()
	placements := e.place(s, w, h)
	for _, p := range placements {
		surface.DrawBitmap(p.Bitmap, p.Rect)
	}
	return placements, *s
}

// SetEnabled turns an accessory on or off and requests a redraw.
func (e *Engine) SetEnabled(name string, enabled bool) error {
	for i, acc := range e.accessories {
		if acc.Name == name {
			e.enabled[i].Store(enabled)
			e.requestRedraw()
			return nil
		}
	}
	return ErrUnknownAccessory
}

// Accessories lists the registered accessories in draw order.
func (e *Engine) Accessories() []AccessoryStatus {
	out := make([]AccessoryStatus, len(e.accessories))
	for i, acc := range e.accessories {
		out[i] = AccessoryStatus{Name: acc.Name, Enabled: e.enabled[i].Load()}
	}
	return out
}
