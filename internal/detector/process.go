package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/thuglens/internal/capture"
)

// ProcessIdleTimeout is how long the external service may sit unused before
// it is shut down. It is restarted on the next detection.
const ProcessIdleTimeout = 30 * time.Second

// ProcessDetector implements Detector by talking to an external landmark
// service over stdin/stdout.
//
// Each request is a 4-byte big-endian length followed by an upright JPEG.
// Each response is one JSON line:
//
//	{"faces":[{"score":0.9,"landmarks":{"LEFT_EYE":{"x":1,"y":2}}}]}
type ProcessDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idle      time.Duration
	idleTimer *time.Timer
	idleGen   uint64
}

// NewProcessDetector creates a detector for cfg.Command.
// The process is started lazily on first detection.
func NewProcessDetector(cfg Config) (*ProcessDetector, error) {
	if cfg.Command == "" {
		return nil, errors.New("process detector: no command configured")
	}
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return nil, fmt.Errorf("process detector: %w", err)
	}

	return &ProcessDetector{config: cfg, idle: ProcessIdleTimeout}, nil
}

// Detect sends one frame to the service and parses its answer.
func (d *ProcessDetector) Detect(req Request) ([]Face, error) {
	raw, err := capture.DecodeMat(req.Data, req.Width, req.Height, req.Format)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	img := capture.Orient(raw, req.Quadrant)
	defer img.Close()

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	faces, err := d.roundTrip(buf.GetBytes())
	if err != nil {
		// The stream is out of sync now; start over on the next request.
		d.shutdown()
		return nil, err
	}

	d.resetIdleTimer()
	return faces, nil
}

// Close shuts down the external process.
func (d *ProcessDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *ProcessDetector) roundTrip(data []byte) ([]Face, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseFaces(line)
}

func (d *ProcessDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.config.Command, d.config.Args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *ProcessDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	d.idleGen++

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *ProcessDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleGen++
	gen := d.idleGen
	d.idleTimer = time.AfterFunc(d.idle, func() { d.expire(gen) })
}

// expire shuts the service down if gen is still the current idle timer.
// A timer that fired while Detect held the lock finds a newer generation
// and leaves the process alone.
func (d *ProcessDetector) expire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.idleGen {
		return
	}
	d.shutdown()
}

// jsonFace is the wire form of a face in the service response.
type jsonFace struct {
	Score     float64                `json:"score"`
	Landmarks map[LandmarkType]Point `json:"landmarks"`
}

func parseFaces(line []byte) ([]Face, error) {
	var response struct {
		Faces []jsonFace `json:"faces"`
		Error string     `json:"error,omitempty"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", response.Error)
	}

	faces := make([]Face, len(response.Faces))
	for i, f := range response.Faces {
		faces[i] = NewFace(f.Score, f.Landmarks)
	}
	return faces, nil
}
