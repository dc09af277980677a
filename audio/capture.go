// Package audio provides microphone capture, speaker playback, and the
// 4-band FFT analyser the visualizer publisher consumes. Device I/O is
// platform-gated per build tag; capture and playback are otherwise pure Go.
package audio

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrUnsupported is returned on platforms without a device backend.
	ErrUnsupported = errors.New("audio: unsupported platform")
	// ErrAlreadyCapturing is returned by Start when capture is already running.
	ErrAlreadyCapturing = errors.New("audio: already capturing")
	// ErrNotCapturing is returned by Stop when capture is not running.
	ErrNotCapturing = errors.New("audio: not capturing")
)

// SampleRate is the capture sample rate mandated for STT and live-session
// uplink framing.
const SampleRate = 16000

// captureImpl is the platform-specific microphone backend.
type captureImpl interface {
	start(sampleRate int, callback func(samples []float32)) error
	stop() error
}

// Capture owns the microphone input ring and dispatches samples to
// registered callbacks (the PTT recorder, the live-session uplink, and the
// analyser all subscribe independently).
type Capture struct {
	mu        sync.RWMutex
	capturing bool
	impl      captureImpl

	Ring *Ring[float32]

	onAudio     map[int]func([]float32)
	nextOnAudio int
}

// NewCapture creates a microphone capture instance buffering up to
// bufferDuration of audio.
func NewCapture(bufferDuration time.Duration) (*Capture, error) {
	impl, err := newCaptureImpl()
	if err != nil {
		return nil, err
	}
	if bufferDuration <= 0 {
		bufferDuration = 30 * time.Second
	}
	capacity := int(bufferDuration.Seconds() * SampleRate)
	return &Capture{impl: impl, Ring: NewRing[float32](capacity)}, nil
}

// OnAudio registers a callback invoked with every captured chunk, returning
// an unregister function. Callbacks must not block; they run on the
// capture device's callback goroutine. Callers that register a closure
// scoped to a single take or session (the PTT recorder, the live-session
// uplink) must call the returned func when that take/session ends, or the
// stale closure keeps firing into dead state on every subsequent cycle.
func (c *Capture) OnAudio(cb func([]float32)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onAudio == nil {
		c.onAudio = make(map[int]func([]float32))
	}
	id := c.nextOnAudio
	c.nextOnAudio++
	c.onAudio[id] = cb
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.onAudio, id)
	}
}

// Start begins capturing microphone audio at SampleRate, mono.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capturing {
		return ErrAlreadyCapturing
	}
	if err := c.impl.start(SampleRate, c.dispatch); err != nil {
		return err
	}
	c.capturing = true
	return nil
}

// Stop halts capture.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		return ErrNotCapturing
	}
	err := c.impl.stop()
	c.capturing = false
	return err
}

// IsCapturing reports whether capture is currently active.
func (c *Capture) IsCapturing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capturing
}

func (c *Capture) dispatch(samples []float32) {
	c.Ring.Write(samples)

	c.mu.RLock()
	callbacks := make([]func([]float32), 0, len(c.onAudio))
	for _, cb := range c.onAudio {
		callbacks = append(callbacks, cb)
	}
	c.mu.RUnlock()
	for _, cb := range callbacks {
		cb(samples)
	}
}
