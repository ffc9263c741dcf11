package detector

import (
	"os/exec"
	"testing"
	"time"
)

// newCatDetector returns a ProcessDetector whose service is a running cat,
// which is enough to exercise process lifecycle without a landmark model.
func newCatDetector(t *testing.T, idle time.Duration) *ProcessDetector {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	d, err := NewProcessDetector(Config{Kind: KindProcess, Command: "cat"})
	if err != nil {
		t.Fatalf("NewProcessDetector() error = %v", err)
	}
	d.idle = idle
	t.Cleanup(func() { d.Close() })

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureStarted(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return d
}

func (d *ProcessDetector) isStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func TestProcessDetector_IdleShutdown(t *testing.T) {
	d := newCatDetector(t, 10*time.Millisecond)

	d.mu.Lock()
	d.resetIdleTimer()
	d.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for d.isStarted() {
		if time.Now().After(deadline) {
			t.Fatal("idle service was not shut down")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProcessDetector_ReplacedIdleTimerIsIgnored(t *testing.T) {
	d := newCatDetector(t, time.Hour)

	// A timer that already fired is waiting for the lock while a detection
	// re-arms the idle timer.
	d.mu.Lock()
	d.resetIdleTimer()
	fired := d.idleGen
	d.resetIdleTimer()
	current := d.idleGen
	d.mu.Unlock()

	d.expire(fired)
	if !d.isStarted() {
		t.Fatal("a replaced idle timer shut down a service that was just used")
	}

	d.expire(current)
	if d.isStarted() {
		t.Error("the current idle timer should shut the service down")
	}
}

func TestProcessDetector_CloseInvalidatesIdleTimer(t *testing.T) {
	d := newCatDetector(t, time.Hour)

	d.mu.Lock()
	d.resetIdleTimer()
	armed := d.idleGen
	d.mu.Unlock()

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	d.mu.Lock()
	if err := d.ensureStarted(); err != nil {
		d.mu.Unlock()
		t.Fatalf("restart: %v", err)
	}
	d.mu.Unlock()

	d.expire(armed)
	if !d.isStarted() {
		t.Error("a timer from before Close shut down the restarted service")
	}
}
