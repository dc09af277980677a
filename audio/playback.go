package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

// PlaybackSampleRate is the sample rate the live session's audio downlink
// delivers, matching the model's TTS output rate.
const PlaybackSampleRate = 24000

// playbackImpl is the platform-specific speaker backend. It pulls samples
// from Playback's ring via the pull callback rather than being pushed to, since
// the output device drives its own callback cadence.
type playbackImpl interface {
	start(sampleRate int, pull func(out []int16) int) error
	stop() error
}

// Playback owns the bounded output ring the live session's downlink audio
// chunks are enqueued into. Capacity is bounded to roughly 2 seconds per the
// live session's barge-in contract: on Interrupted the ring is cleared so
// stale audio never continues to play past a barge-in.
type Playback struct {
	mu      sync.Mutex
	impl    playbackImpl
	ring    *Ring[int16]
	playing atomic.Bool

	onAudio     map[int]func([]float32)
	nextOnAudio int
}

// NewPlayback creates a playback sink with a ~2s bounded ring.
func NewPlayback() (*Playback, error) {
	impl, err := newPlaybackImpl()
	if err != nil {
		return nil, err
	}
	capacity := int(2 * time.Second.Seconds() * PlaybackSampleRate)
	return &Playback{impl: impl, ring: NewRing[int16](capacity)}, nil
}

// Start opens the output device.
func (p *Playback) Start() error {
	return p.impl.start(PlaybackSampleRate, p.pull)
}

// Stop closes the output device.
func (p *Playback) Stop() error {
	p.playing.Store(false)
	return p.impl.stop()
}

// OnAudio registers a callback invoked with every chunk enqueued for
// playback, converted to float32, returning an unregister function. Mirrors
// Capture.OnAudio, including the requirement that a caller scoping a
// closure to a single session unregister it when that session ends.
// Callbacks must not block and run synchronously on the caller of Enqueue.
// This is how the visualizer's AI-side analyser observes the model's
// audio, independent of the output device's own pull cadence.
func (p *Playback) OnAudio(cb func([]float32)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onAudio == nil {
		p.onAudio = make(map[int]func([]float32))
	}
	id := p.nextOnAudio
	p.nextOnAudio++
	p.onAudio[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.onAudio, id)
	}
}

// Enqueue appends 24kHz mono s16le PCM bytes to the playback ring, dropping
// the oldest samples on overflow.
func (p *Playback) Enqueue(pcm []byte) {
	samples := bytesToInt16LE(pcm)
	p.ring.Write(samples)

	p.mu.Lock()
	callbacks := make([]func([]float32), 0, len(p.onAudio))
	for _, cb := range p.onAudio {
		callbacks = append(callbacks, cb)
	}
	p.mu.Unlock()
	if len(callbacks) == 0 {
		return
	}
	floats := PCM16ToFloat(samples)
	for _, cb := range callbacks {
		cb(floats)
	}
}

// Clear immediately discards all buffered playback audio. Called on
// LiveEvent Interrupted to satisfy the barge-in latency bound.
func (p *Playback) Clear() {
	p.ring.Clear()
	p.playing.Store(false)
}

// IsPlaying reports whether the device callback has consumed audio recently.
func (p *Playback) IsPlaying() bool {
	return p.playing.Load()
}

// DroppedSamples returns the cumulative overflow counter for observability.
func (p *Playback) DroppedSamples() uint64 {
	overflow, _ := p.ring.Counters()
	return overflow
}

func (p *Playback) pull(out []int16) int {
	got := p.ring.Dequeue(len(out))
	copy(out, got)
	for i := len(got); i < len(out); i++ {
		out[i] = 0
	}
	p.playing.Store(len(got) > 0)
	return len(got)
}

func bytesToInt16LE(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
	}
	return out
}
