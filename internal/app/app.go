// Package app wires the camera, detector, overlay and display together.
package app

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/thuglens/internal/assets"
	"github.com/ayusman/thuglens/internal/capture"
	"github.com/ayusman/thuglens/internal/config"
	"github.com/ayusman/thuglens/internal/detector"
	"github.com/ayusman/thuglens/internal/display"
	"github.com/ayusman/thuglens/internal/gate"
	"github.com/ayusman/thuglens/internal/logging"
	"github.com/ayusman/thuglens/internal/overlay"
	"github.com/ayusman/thuglens/internal/store"
)

// Options holds the collaborators of an App. Camera and Detector are
// built from Config when nil; Store is optional. A given Camera carries its
// own rotation, so Config.Rotation only applies to the default device.
type Options struct {
	Config   config.Config
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Log      logrus.FieldLogger
}

// App runs the capture and redraw loops and exposes runtime controls.
type App struct {
	cfg      config.Config
	store    *store.Store
	camera   capture.Camera
	detector detector.Detector
	log      logrus.FieldLogger

	engine     *overlay.Engine
	compositor *display.Compositor
	adapter    *detector.Adapter
	gate       *gate.Gate

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds an App. Accessory state and the overlay switch are restored
// from the store when one is given.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	if _, err := gate.Quadrant(cfg.Rotation); err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		store:    opts.Store,
		camera:   opts.Camera,
		detector: opts.Detector,
		log:      log.WithField("component", "app"),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.DeviceConfig{
			ID:       cfg.CameraID,
			Width:    cfg.CameraWidth,
			Height:   cfg.CameraHeight,
			FPS:      cfg.FPS,
			Rotation: cfg.Rotation,
		})
	}
	if a.detector == nil {
		d, err := detector.New(cfg.Detector())
		if err != nil {
			return nil, fmt.Errorf("detector: %w", err)
		}
		a.detector = d
	}

	if a.store != nil {
		if err := a.store.Accessories().EnsureDefaults(overlay.NameGlasses, overlay.NameCigarette); err != nil {
			return nil, fmt.Errorf("accessory defaults: %w", err)
		}
	}

	glasses, err := a.loadBitmap(overlay.NameGlasses, cfg.GlassesAsset, assets.DefaultGlasses)
	if err != nil {
		return nil, err
	}
	cigarette, err := a.loadBitmap(overlay.NameCigarette, cfg.CigaretteAsset, assets.DefaultCigarette)
	if err != nil {
		return nil, err
	}

	a.engine = overlay.NewEngine(overlay.Glasses(glasses), overlay.Cigarette(cigarette))
	a.compositor = display.NewCompositor(a.engine, cfg.DisplayWidth, cfg.DisplayHeight, log)
	a.adapter = detector.NewAdapter(a.detector, a.camera.Format(), cfg.DetectorCapacity, a.engine.Update, log)
	a.gate = gate.New(a.engine, a.adapter, log)

	if err := a.restoreState(); err != nil {
		return nil, err
	}

	return a, nil
}

// loadBitmap picks the configured asset, then the stored one, then the
// built-in bitmap.
func (a *App) loadBitmap(name, configured string, fallback func() *image.NRGBA) (image.Image, error) {
	path := configured
	if path == "" && a.store != nil {
		if acc, err := a.store.Accessories().Get(name); err == nil {
			path = acc.AssetPath
		}
	}

	img, err := assets.LoadOr(path, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s asset: %w", name, err)
	}
	if path != "" {
		a.log.WithFields(logrus.Fields{"accessory": name, "path": path}).Info("loaded accessory bitmap")
	}
	return img, nil
}

func (a *App) restoreState() error {
	if a.store == nil {
		return nil
	}

	accessories, err := a.store.Accessories().List()
	if err != nil {
		return fmt.Errorf("load accessories: %w", err)
	}
	for _, acc := range accessories {
		if err := a.engine.SetEnabled(acc.Name, acc.Enabled); err != nil {
			a.log.WithField("accessory", acc.Name).Warn("stored accessory is not registered")
		}
	}

	a.compositor.SetOverlayEnabled(a.store.BoolSetting(store.SettingOverlayEnabled, true))
	return nil
}

// Start opens the camera and starts the capture and redraw loops. Calling
// Start on a running App does nothing.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.cfg.FPS)

	a.stopCh = make(chan struct{})
	a.wg.Add(2)
	go a.runCapture(a.stopCh)
	go a.runRedraw(a.stopCh)

	a.log.WithFields(logrus.Fields{"fps": a.cfg.FPS, "rotation": a.cfg.Rotation}).Info("pipeline started")
	return nil
}

// Stop halts both loops, waits for in-flight detections and closes the
// camera. The App can be started again.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh == nil {
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.wg.Wait()
	a.adapter.Wait()

	if err := a.camera.Close(); err != nil {
		a.log.WithError(err).Warn("closing camera")
	}

	a.log.Info("pipeline stopped")
}

// Running reports whether the pipeline is started.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() error {
	a.Stop()
	return a.detector.Close()
}

// Engine returns the overlay engine.
func (a *App) Engine() *overlay.Engine {
	return a.engine
}

// Compositor returns the display compositor.
func (a *App) Compositor() *display.Compositor {
	return a.compositor
}

// Accessories lists the registered accessories.
func (a *App) Accessories() []overlay.AccessoryStatus {
	return a.engine.Accessories()
}

// SetAccessoryEnabled turns one accessory on or off and persists the choice.
func (a *App) SetAccessoryEnabled(name string, enabled bool) error {
	if err := a.engine.SetEnabled(name, enabled); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.Accessories().SetEnabled(name, enabled); err != nil {
			return fmt.Errorf("persist accessory: %w", err)
		}
	}
	a.log.WithFields(logrus.Fields{"accessory": name, "enabled": enabled}).Info("accessory toggled")
	return nil
}

// OverlayEnabled reports whether accessories are drawn at all.
func (a *App) OverlayEnabled() bool {
	return a.compositor.OverlayEnabled()
}

// SetOverlayEnabled switches the whole overlay, persists the choice and
// recomposes the current frame.
func (a *App) SetOverlayEnabled(enabled bool) error {
	a.compositor.SetOverlayEnabled(enabled)
	if a.store != nil {
		if err := a.store.SetBoolSetting(store.SettingOverlayEnabled, enabled); err != nil {
			return fmt.Errorf("persist overlay setting: %w", err)
		}
	}
	a.compositor.Compose()
	a.log.WithField("enabled", enabled).Info("overlay toggled")
	return nil
}

// ToggleOverlay flips the overlay switch and returns the new state.
func (a *App) ToggleOverlay() (bool, error) {
	enabled := !a.OverlayEnabled()
	return enabled, a.SetOverlayEnabled(enabled)
}

// TakeSnapshot saves the latest composed frame as WebP and records it.
func (a *App) TakeSnapshot() (*store.Snapshot, error) {
	snap := &store.Snapshot{ID: store.NewSnapshotID()}
	snap.Path = filepath.Join(a.cfg.SnapshotDir(), snap.ID+".webp")

	frame, err := a.compositor.SaveSnapshot(snap.Path)
	if err != nil {
		if errors.Is(err, display.ErrNoFrame) {
			return nil, err
		}
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	snap.HadFace = frame.HasFace
	snap.Placements = len(frame.Placements)

	if a.store != nil {
		if err := a.store.Snapshots().Create(snap); err != nil {
			return nil, fmt.Errorf("record snapshot: %w", err)
		}
	}

	a.log.WithFields(logrus.Fields{"id": snap.ID, "face": snap.HadFace}).Info("snapshot saved")
	return snap, nil
}
