// Package config resolves runtime settings from a .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ayusman/thuglens/internal/detector"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "THUGLENS_"

// Config is the resolved application configuration.
type Config struct {
	CameraID     int `validate:"gte=0"`
	CameraWidth  int `validate:"gt=0"`
	CameraHeight int `validate:"gt=0"`
	FPS          int `validate:"gt=0,lte=120"`
	// Rotation is how far the sensor is turned from upright, in degrees.
	Rotation int `validate:"oneof=0 90 180 270"`

	DisplayWidth  int `validate:"gt=0"`
	DisplayHeight int `validate:"gt=0"`

	DetectorKind     string  `validate:"oneof=yunet process mock"`
	ModelPath        string  `validate:"required_if=DetectorKind yunet"`
	DetectorCommand  string  `validate:"required_if=DetectorKind process"`
	ScoreThreshold   float64 `validate:"gte=0,lte=1"`
	DetectorCapacity int     `validate:"gt=0"`

	GlassesAsset   string
	CigaretteAsset string

	DataDir  string `validate:"required"`
	Addr     string `validate:"required,hostname_port"`
	LogLevel string `validate:"oneof=trace debug info warn error"`
	LogFile  string
	NoTray   bool
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	dataDir := ".thuglens"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".thuglens")
	}

	return Config{
		CameraWidth:      640,
		CameraHeight:     480,
		FPS:              15,
		DisplayWidth:     1280,
		DisplayHeight:    960,
		DetectorKind:     detector.KindYuNet,
		ModelPath:        detector.DefaultConfig().ModelPath,
		ScoreThreshold:   detector.DefaultConfig().ScoreThreshold,
		DetectorCapacity: detector.DefaultCapacity,
		DataDir:          dataDir,
		Addr:             "localhost:8080",
		LogLevel:         "info",
	}
}

// DBPath is the sqlite database location inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "thuglens.db")
}

// SnapshotDir is where snapshot images are written.
func (c Config) SnapshotDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// Detector returns the detector backend settings.
func (c Config) Detector() detector.Config {
	var command string
	var args []string
	if fields := strings.Fields(c.DetectorCommand); len(fields) > 0 {
		command, args = fields[0], fields[1:]
	}
	return detector.Config{
		Kind:           c.DetectorKind,
		ModelPath:      c.ModelPath,
		ScoreThreshold: c.ScoreThreshold,
		Command:        command,
		Args:           args,
	}
}

// Load resolves the configuration. envFile may be empty to skip the .env
// file; a missing file is not an error. args are the command-line
// arguments without the program name.
func Load(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := applyFlags(&cfg, args); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks cfg against its field constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	ints := map[string]*int{
		"CAMERA_ID":         &cfg.CameraID,
		"CAMERA_WIDTH":      &cfg.CameraWidth,
		"CAMERA_HEIGHT":     &cfg.CameraHeight,
		"FPS":               &cfg.FPS,
		"ROTATION":          &cfg.Rotation,
		"DISPLAY_WIDTH":     &cfg.DisplayWidth,
		"DISPLAY_HEIGHT":    &cfg.DisplayHeight,
		"DETECTOR_CAPACITY": &cfg.DetectorCapacity,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	strs := map[string]*string{
		"DETECTOR":         &cfg.DetectorKind,
		"MODEL":            &cfg.ModelPath,
		"DETECTOR_COMMAND": &cfg.DetectorCommand,
		"GLASSES":          &cfg.GlassesAsset,
		"CIGARETTE":        &cfg.CigaretteAsset,
		"DATA_DIR":         &cfg.DataDir,
		"ADDR":             &cfg.Addr,
		"LOG_LEVEL":        &cfg.LogLevel,
		"LOG_FILE":         &cfg.LogFile,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("SCORE_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %sSCORE_THRESHOLD: %w", EnvPrefix, err)
		}
		cfg.ScoreThreshold = f
	}
	if v, ok := lookup("NO_TRAY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sNO_TRAY: %w", EnvPrefix, err)
		}
		cfg.NoTray = b
	}

	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func applyFlags(cfg *Config, args []string) error {
	flags := flag.NewFlagSet("thuglens", flag.ContinueOnError)

	flags.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device id")
	flags.IntVar(&cfg.CameraWidth, "width", cfg.CameraWidth, "capture width")
	flags.IntVar(&cfg.CameraHeight, "height", cfg.CameraHeight, "capture height")
	flags.IntVar(&cfg.FPS, "fps", cfg.FPS, "capture frames per second")
	flags.IntVar(&cfg.Rotation, "rotation", cfg.Rotation, "sensor rotation in degrees (0, 90, 180, 270)")
	flags.IntVar(&cfg.DisplayWidth, "display-width", cfg.DisplayWidth, "composed frame width")
	flags.IntVar(&cfg.DisplayHeight, "display-height", cfg.DisplayHeight, "composed frame height")
	flags.StringVar(&cfg.DetectorKind, "detector", cfg.DetectorKind, "detector backend: yunet, process or mock")
	flags.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "YuNet model path")
	flags.StringVar(&cfg.DetectorCommand, "detector-command", cfg.DetectorCommand, "external landmark service command line")
	flags.Float64Var(&cfg.ScoreThreshold, "score", cfg.ScoreThreshold, "minimum face score")
	flags.IntVar(&cfg.DetectorCapacity, "detector-capacity", cfg.DetectorCapacity, "detections allowed in flight")
	flags.StringVar(&cfg.GlassesAsset, "glasses", cfg.GlassesAsset, "glasses bitmap (png, jpg, webp, tga)")
	flags.StringVar(&cfg.CigaretteAsset, "cigarette", cfg.CigaretteAsset, "cigarette bitmap (png, jpg, webp, tga)")
	flags.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory")
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "rotating log file")
	flags.BoolVar(&cfg.NoTray, "no-tray", cfg.NoTray, "run without the system tray")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
