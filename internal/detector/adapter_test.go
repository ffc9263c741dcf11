package detector

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/thuglens/internal/capture"
	"github.com/ayusman/thuglens/internal/logging"
	"github.com/ayusman/thuglens/internal/optional"
)

// faceRecorder collects every value an Adapter delivers.
type faceRecorder struct {
	mu    sync.Mutex
	calls []optional.Value[Face]
}

func (r *faceRecorder) handle(face optional.Value[Face]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, face)
}

func (r *faceRecorder) snapshot() []optional.Value[Face] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]optional.Value[Face](nil), r.calls...)
}

func TestAdapter_ForwardsFirstFace(t *testing.T) {
	mock := NewMockDetector()
	mock.SetFaces([]Face{FrontalFace(), MouthOnlyFace()})
	rec := &faceRecorder{}

	a := NewAdapter(mock, capture.FormatNV21, 2, rec.handle, logging.Discard())
	if !a.Submit(make([]byte, 12), 4, 2, 1) {
		t.Fatal("Submit() rejected the first frame")
	}
	a.Wait()

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("handler called %d times, want 1", len(calls))
	}
	face, ok := calls[0].Get()
	if !ok {
		t.Fatal("handler received None for a non-empty result")
	}
	if !face.Landmark(LeftEye).IsSome() {
		t.Error("handler should receive the first face")
	}

	req := mock.Requests()[0]
	if req.Format != capture.FormatNV21 || req.Width != 4 || req.Height != 2 || req.Quadrant != 1 {
		t.Errorf("request = %+v", req)
	}
}

func TestAdapter_EmptyResultForwardsNone(t *testing.T) {
	mock := NewMockDetector()
	mock.SetFaces(nil)
	rec := &faceRecorder{}

	a := NewAdapter(mock, capture.FormatBGR, 1, rec.handle, logging.Discard())
	a.Submit([]byte{1, 2, 3}, 1, 1, 0)
	a.Wait()

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("handler called %d times, want 1", len(calls))
	}
	if calls[0].IsSome() {
		t.Error("empty detection should forward None")
	}
}

func TestAdapter_FailureForwardsNothing(t *testing.T) {
	mock := NewMockDetector()
	mock.SetError(errors.New("model crashed"))
	rec := &faceRecorder{}

	a := NewAdapter(mock, capture.FormatBGR, 1, rec.handle, logging.Discard())
	a.Submit([]byte{1, 2, 3}, 1, 1, 0)
	a.Wait()

	if calls := rec.snapshot(); len(calls) != 0 {
		t.Errorf("handler called %d times after failure, want 0", len(calls))
	}
}

func TestAdapter_CopiesBuffer(t *testing.T) {
	mock := NewMockDetector()
	release := make(chan struct{})
	mock.SetHook(func(Request) { <-release })

	a := NewAdapter(mock, capture.FormatBGR, 1, func(optional.Value[Face]) {}, logging.Discard())

	buf := []byte{7, 7, 7}
	a.Submit(buf, 1, 1, 0)
	buf[0] = 0

	close(release)
	a.Wait()

	if got := mock.Requests()[0].Data[0]; got != 7 {
		t.Errorf("request saw caller mutation: Data[0] = %d, want 7", got)
	}
}

func TestAdapter_DropsWhenFull(t *testing.T) {
	mock := NewMockDetector()
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	mock.SetHook(func(Request) {
		started <- struct{}{}
		<-release
	})

	a := NewAdapter(mock, capture.FormatBGR, 2, func(optional.Value[Face]) {}, logging.Discard())

	if !a.Submit([]byte{1}, 1, 1, 0) || !a.Submit([]byte{1}, 1, 1, 0) {
		t.Fatal("first two submissions should be accepted")
	}
	<-started
	<-started

	if a.Submit([]byte{1}, 1, 1, 0) {
		t.Error("third submission should be dropped while two are in flight")
	}

	close(release)
	a.Wait()

	if !a.Submit([]byte{1}, 1, 1, 0) {
		t.Error("submission should be accepted once capacity frees up")
	}
	a.Wait()
}

func TestAdapter_SubmitDoesNotBlock(t *testing.T) {
	mock := NewMockDetector()
	release := make(chan struct{})
	mock.SetHook(func(Request) { <-release })
	defer close(release)

	a := NewAdapter(mock, capture.FormatBGR, 1, func(optional.Value[Face]) {}, logging.Discard())

	done := make(chan struct{})
	go func() {
		a.Submit([]byte{1}, 1, 1, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit() blocked on a pending detection")
	}
}

func TestAdapter_LastCompletedWins(t *testing.T) {
	// First submission finishes after the second one.
	mock := NewMockDetector()
	gates := map[byte]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	mock.SetHook(func(req Request) { <-gates[req.Data[0]] })

	rec := &faceRecorder{}
	a := NewAdapter(mock, capture.FormatBGR, 2, rec.handle, logging.Discard())

	mock.SetFaces([]Face{MouthOnlyFace()})
	a.Submit([]byte{1}, 1, 1, 0)
	waitFor(t, func() bool { return len(mock.Requests()) == 1 })

	a.Submit([]byte{2}, 1, 1, 0)
	waitFor(t, func() bool { return len(mock.Requests()) == 2 })

	close(gates[2])
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })

	mock.SetFaces(nil)
	close(gates[1])
	a.Wait()

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("handler called %d times, want 2", len(calls))
	}
	if calls[1].IsSome() {
		t.Error("the later completion should be delivered last, regardless of submit order")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
