package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/thuglens/internal/app"
	"github.com/ayusman/thuglens/internal/config"
	"github.com/ayusman/thuglens/internal/logging"
	"github.com/ayusman/thuglens/internal/server"
	"github.com/ayusman/thuglens/internal/store"
	"github.com/ayusman/thuglens/internal/tray"
)

func main() {
	cfg, err := config.Load(".env", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	logger.WithField("data", cfg.DataDir).Info("ThugLens starting")

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	a, err := app.New(app.Options{Config: cfg, Store: st, Log: logger})
	if err != nil {
		return err
	}
	defer a.Close()

	webDir := findWebDir()
	if webDir != "" {
		logger.WithField("dir", webDir).Info("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Frames:     a.Compositor(),
		Controller: a,
		Log:        logger,
	})

	if err := a.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.NoTray {
		select {
		case <-sigCh:
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server: %w", err)
			}
		}
	} else {
		runTray(cfg, a, webDir, sigCh, errCh, logger)
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("server shutdown")
	}
	return nil
}

// runTray blocks in the tray event loop until Quit, a signal or a server
// failure.
func runTray(cfg config.Config, a *app.App, webDir string, sigCh <-chan os.Signal, errCh <-chan error, logger *logrus.Logger) {
	t := tray.New(a.OverlayEnabled())
	t.OnToggle(a.ToggleOverlay)
	t.OnSnapshot(func() (string, error) {
		snap, err := a.TakeSnapshot()
		if err != nil {
			logger.WithError(err).Warn("snapshot failed")
			return "", err
		}
		return filepath.Base(snap.Path), nil
	})
	t.OnOpen(func() {
		url := viewerURL(cfg.Addr, webDir != "")
		if err := openBrowser(url); err != nil {
			logger.WithError(err).WithField("url", url).Warn("could not open browser")
		}
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sigCh:
		case err := <-errCh:
			if err != nil {
				logger.WithError(err).Error("server failed")
			}
		case <-done:
			return
		}
		t.Quit()
	}()

	go watchFace(a, t, done)

	t.Run()
}

// watchFace mirrors the detection status into the tray menu.
func watchFace(a *app.App, t *tray.Tray, done <-chan struct{}) {
	c := a.Compositor()
	shown := false
	t.SetStatus("No face")
	for {
		updated := c.Updated()
		if f := c.Latest(); f != nil && f.HasFace != shown {
			shown = f.HasFace
			if shown {
				t.SetStatus("Face detected")
			} else {
				t.SetStatus("No face")
			}
		}
		select {
		case <-done:
			return
		case <-updated:
		}
	}
}

func viewerURL(addr string, hasWeb bool) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	if hasWeb {
		return "http://" + host + "/"
	}
	return "http://" + host + "/api/stream"
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.thuglens/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".thuglens", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
