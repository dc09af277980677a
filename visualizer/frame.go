// Package visualizer publishes VisualizerFrame snapshots into a
// triple-buffered atomic cell an external GPU renderer reads at its own
// cadence. The per-frame smoothing constants (lerp speeds, attack/release,
// color transitions) are carried over from the overlay's original state
// machine, adapted from its four-state color model onto the two-mode
// {Waveform, Processing} contract the renderer's shader uniforms consume.
package visualizer

import (
	"sync/atomic"
	"time"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

// Smoothing constants, carried from the original overlay's per-frame lerp
// model.
const (
	levelLerpActive   = 0.18
	levelLerpDecaying = 0.30
	intensityAttack   = 0.15
	intensityRelease  = 0.10
	colorLerp         = 0.08
)

var (
	colorIdle       = [3]float32{0, 0, 0}
	colorDictating  = [3]float32{1.0, 0.51, 0.24}
	colorProcessing = [3]float32{0.9, 0.76, 0.31}
	colorActive     = [3]float32{0.31, 0.86, 0.51}
)

// FrameCell is a triple-buffered atomic holder for the latest published
// frame: the publisher always writes a brand new *VisualizerFrame, so
// readers never observe a partially updated struct and never block the
// publisher.
type FrameCell struct {
	ptr atomic.Pointer[mvtypes.VisualizerFrame]
}

// Load returns the most recently published frame, or nil if none yet.
func (c *FrameCell) Load() *mvtypes.VisualizerFrame {
	return c.ptr.Load()
}

func (c *FrameCell) store(f mvtypes.VisualizerFrame) {
	c.ptr.Store(&f)
}

// Publisher owns the smoothed visual state and publishes new frames into a
// FrameCell each tick.
type Publisher struct {
	cell  *FrameCell
	start time.Time

	userLevels    [4]float32
	userIntensity float32
	aiLevels      [4]float32
	aiIntensity   float32
	color         [3]float32
	mode          mvtypes.VisualizerMode
}

// NewPublisher creates a publisher writing into cell. start anchors the
// frame's TSeconds field, the shader's start-relative time uniform.
func NewPublisher(cell *FrameCell) *Publisher {
	return &Publisher{cell: cell, color: colorIdle, start: time.Now()}
}

// Tick advances the smoothed state one frame toward the given raw levels
// and state, then publishes the result. state selects the target color and
// whether level decay uses the active or decaying lerp speed. Both sides
// are always driven together; use TickUser/TickAI when the two sides are
// sampled on independent cadences, since either one alone would otherwise
// decay the other side's levels toward zero on every call.
func (p *Publisher) Tick(state mvtypes.AppState, rawUser, rawAI [4]float32, rawUserIntensity, rawAIIntensity float32) {
	p.updateUser(state, rawUser, rawUserIntensity)
	p.updateAI(rawAI, rawAIIntensity)
	p.updateStateVisuals(state)
	p.publish()
}

// TickUser advances only the user-side levels and intensity, then publishes.
// Used when the capture-side analyser samples on its own cadence, so it
// never stomps the AI-side levels the playback-side analyser maintains.
func (p *Publisher) TickUser(state mvtypes.AppState, rawUser [4]float32, rawUserIntensity float32) {
	p.updateUser(state, rawUser, rawUserIntensity)
	p.updateStateVisuals(state)
	p.publish()
}

// TickAI advances only the AI-side levels and intensity, then publishes.
// Used when the playback-side analyser samples on its own cadence.
func (p *Publisher) TickAI(state mvtypes.AppState, rawAI [4]float32, rawAIIntensity float32) {
	p.updateAI(rawAI, rawAIIntensity)
	p.updateStateVisuals(state)
	p.publish()
}

func (p *Publisher) updateUser(state mvtypes.AppState, rawUser [4]float32, rawUserIntensity float32) {
	levelSpeed := levelSpeedFor(state)
	for i := 0; i < 4; i++ {
		p.userLevels[i] = lerp(p.userLevels[i], rawUser[i], levelSpeed)
	}
	p.userIntensity = attackRelease(p.userIntensity, rawUserIntensity)
}

func (p *Publisher) updateAI(rawAI [4]float32, rawAIIntensity float32) {
	levelSpeed := float32(levelLerpActive)
	for i := 0; i < 4; i++ {
		p.aiLevels[i] = lerp(p.aiLevels[i], rawAI[i], levelSpeed)
	}
	p.aiIntensity = attackRelease(p.aiIntensity, rawAIIntensity)
}

func (p *Publisher) updateStateVisuals(state mvtypes.AppState) {
	target := targetColor(state)
	for i := range p.color {
		p.color[i] = lerp(p.color[i], target[i], colorLerp)
	}

	p.mode = mvtypes.Waveform
	if state == mvtypes.Transcribing || state == mvtypes.ConversationOpening || state == mvtypes.ConversationClosing {
		p.mode = mvtypes.Processing
	}
}

func (p *Publisher) publish() {
	now := time.Now()
	p.cell.store(mvtypes.VisualizerFrame{
		Mode:          p.mode,
		UserLevels:    p.userLevels,
		UserIntensity: p.userIntensity,
		AIListLevels:  p.aiLevels,
		AIIntensity:   p.aiIntensity,
		Color:         p.color,
		Timestamp:     now,
		TSeconds:      float32(now.Sub(p.start).Seconds()),
	})
}

func levelSpeedFor(state mvtypes.AppState) float32 {
	if state == mvtypes.Dictating || state == mvtypes.ConversationActive {
		return levelLerpActive
	}
	return levelLerpDecaying
}

// Zero explicitly resets all shader uniforms to their idle values, as
// required on any transition into Idle: a residual half-decayed level or
// stale color must never linger into the next dictation or conversation.
func (p *Publisher) Zero() {
	p.userLevels = [4]float32{}
	p.aiLevels = [4]float32{}
	p.userIntensity = 0
	p.aiIntensity = 0
	p.color = colorIdle
	p.mode = mvtypes.Waveform
	now := time.Now()
	p.cell.store(mvtypes.VisualizerFrame{Color: colorIdle, Timestamp: now, TSeconds: float32(now.Sub(p.start).Seconds())})
}

func targetColor(state mvtypes.AppState) [3]float32 {
	switch state {
	case mvtypes.Dictating:
		return colorDictating
	case mvtypes.Transcribing, mvtypes.ConversationOpening, mvtypes.ConversationClosing:
		return colorProcessing
	case mvtypes.ConversationActive:
		return colorActive
	default:
		return colorIdle
	}
}

func lerp(from, to, t float32) float32 {
	return from + (to-from)*t
}

func attackRelease(current, target float32) float32 {
	if target > current {
		return lerp(current, target, intensityAttack)
	}
	return lerp(current, target, intensityRelease)
}
