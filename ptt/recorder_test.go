package ptt

import (
	"testing"
	"time"

	"github.com/mavoice/mavoice/audio"
)

// fakeSource mimics audio.Capture's own multi-subscriber OnAudio: every
// registration is additive until explicitly unregistered, so a test can
// catch a Recorder that forgets to unsubscribe a stale take's closure.
type fakeSource struct {
	callbacks map[int]func([]float32)
	nextID    int
	started   bool
}

func (f *fakeSource) OnAudio(cb func([]float32)) func() {
	if f.callbacks == nil {
		f.callbacks = make(map[int]func([]float32))
	}
	id := f.nextID
	f.nextID++
	f.callbacks[id] = cb
	return func() { delete(f.callbacks, id) }
}

func (f *fakeSource) Start() error { f.started = true; return nil }
func (f *fakeSource) Stop() error  { f.started = false; return nil }

func (f *fakeSource) fire(samples []float32) {
	for _, cb := range f.callbacks {
		cb(samples)
	}
}

func TestRecorderCapturesSamples(t *testing.T) {
	src := &fakeSource{}
	r := &Recorder{capture: src}

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.fire([]float32{0.1, 0.2, 0.3})

	buf, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(buf.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(buf.Samples))
	}
	if buf.SampleRate != audio.SampleRate {
		t.Fatalf("unexpected sample rate %d", buf.SampleRate)
	}
}

func TestRecorderStopUnregistersCallback(t *testing.T) {
	src := &fakeSource{}
	r := &Recorder{capture: src}

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(src.callbacks) != 1 {
		t.Fatalf("expected exactly 1 registered callback while dictating, got %d", len(src.callbacks))
	}
	src.fire([]float32{0.1})
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(src.callbacks) != 0 {
		t.Fatalf("expected Stop to unregister the take's capture callback, got %d still registered", len(src.callbacks))
	}
}

func TestRecorderSecondTakeDoesNotDoubleCountSamples(t *testing.T) {
	src := &fakeSource{}
	r := &Recorder{capture: src}

	if err := r.Start(); err != nil {
		t.Fatalf("Start (take 1): %v", err)
	}
	src.fire([]float32{0.1, 0.2})
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop (take 1): %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start (take 2): %v", err)
	}
	// fire() drives every still-registered callback; if take 1's were not
	// unregistered by Stop, this would double-count into take 2's buffer.
	src.fire([]float32{0.3, 0.4})
	buf, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop (take 2): %v", err)
	}
	if len(buf.Samples) != 2 {
		t.Fatalf("expected take 2 to contain only its own 2 samples, got %d", len(buf.Samples))
	}
}

func TestRecorderFiresOnMaxDuration(t *testing.T) {
	orig := MaxTakeDuration
	MaxTakeDuration = 10 * time.Millisecond
	defer func() { MaxTakeDuration = orig }()

	src := &fakeSource{}
	r := &Recorder{capture: src}

	fired := make(chan struct{})
	r.OnMaxDuration(func() { close(fired) })

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected OnMaxDuration callback to fire after the cap elapsed")
	}
}

func TestRecorderStopCancelsMaxDurationTimer(t *testing.T) {
	orig := MaxTakeDuration
	MaxTakeDuration = 20 * time.Millisecond
	defer func() { MaxTakeDuration = orig }()

	src := &fakeSource{}
	r := &Recorder{capture: src}

	fired := false
	r.OnMaxDuration(func() { fired = true })

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.fire([]float32{0.1})
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if fired {
		t.Fatal("expected the max-duration timer to be cancelled by a manual Stop")
	}
}

func TestRecorderEmptyTakeReturnsError(t *testing.T) {
	src := &fakeSource{}
	r := &Recorder{capture: src}

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Stop(); err != ErrEmptyTake {
		t.Fatalf("expected ErrEmptyTake, got %v", err)
	}
}
