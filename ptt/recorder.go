// Package ptt implements the push-to-talk recorder: freeze the capture
// ring into a WavBuffer on stop, enforcing the maximum-take duration and
// the empty-take boundary case.
package ptt

import (
	"errors"
	"sync"
	"time"

	"github.com/mavoice/mavoice/audio"
	"github.com/mavoice/mavoice/internal/mvtypes"
)

// MaxTakeDuration bounds a single dictation take. A var rather than a
// const so tests can shrink it instead of waiting out the real cap.
var MaxTakeDuration = 30 * time.Second

// ErrEmptyTake is returned by Stop when no audio was captured.
var ErrEmptyTake = errors.New("ptt: empty take")

// source is the subset of *audio.Capture the recorder depends on, kept as
// an interface so tests can substitute a fake capture device.
type source interface {
	OnAudio(func([]float32)) func()
	Start() error
	Stop() error
}

// Recorder accumulates capture-ring samples between Start and Stop.
type Recorder struct {
	mu         sync.Mutex
	capture    source
	samples    []float32
	started    time.Time
	timer      *time.Timer
	onMax      func()
	unsubAudio func()
}

// NewRecorder wraps an already-open Capture.
func NewRecorder(capture *audio.Capture) *Recorder {
	return &Recorder{capture: capture}
}

// OnMaxDuration registers a callback fired once MaxTakeDuration elapses
// without a manual Stop. The caller uses this to force the take to end and
// proceed to transcription, rather than leave the machine dictating
// indefinitely once the cap is hit.
func (r *Recorder) OnMaxDuration(cb func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onMax = cb
}

// Start begins accumulating samples from the capture ring.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.unsubAudio != nil {
		r.unsubAudio()
	}
	r.samples = r.samples[:0]
	r.started = time.Now()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(MaxTakeDuration, r.fireMax)
	r.mu.Unlock()

	unsub := r.capture.OnAudio(func(s []float32) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if time.Since(r.started) >= MaxTakeDuration {
			return
		}
		r.samples = append(r.samples, s...)
	})
	r.mu.Lock()
	r.unsubAudio = unsub
	r.mu.Unlock()

	return r.capture.Start()
}

func (r *Recorder) fireMax() {
	r.mu.Lock()
	cb := r.onMax
	r.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Stop freezes the accumulated samples into a canonical WAV buffer. It
// returns ErrEmptyTake if nothing was captured. Stop always unregisters
// this take's capture callback, so a stale closure never fires into a
// future take's sample buffer.
func (r *Recorder) Stop() (mvtypes.WavBuffer, error) {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.unsubAudio != nil {
		r.unsubAudio()
		r.unsubAudio = nil
	}
	r.mu.Unlock()

	if err := r.capture.Stop(); err != nil && !errors.Is(err, audio.ErrNotCapturing) {
		return mvtypes.WavBuffer{}, err
	}

	r.mu.Lock()
	samples := append([]float32(nil), r.samples...)
	r.mu.Unlock()

	if len(samples) == 0 {
		return mvtypes.WavBuffer{}, ErrEmptyTake
	}

	return mvtypes.WavBuffer{
		SampleRate: audio.SampleRate,
		Samples:    audio.FloatToPCM16(samples),
	}, nil
}
