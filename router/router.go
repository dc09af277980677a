// Package router implements the mode router / state machine: the single
// mutator of AppState, consuming a merged channel of hotkey, live-session
// and tool events and driving every state transition of the exhaustive
// six-state transition table. Analyser output does not pass through the
// router; it goes straight to the visualizer publisher. All other tasks talk to the
// router through Deps; the router itself never touches a device or socket
// directly, mirroring the orchestration-only App type this is grounded on.
package router

import (
	"log/slog"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

// Deps is everything the router delegates side effects to. Implementations
// own the actual audio devices, live session, tool dispatcher, injector and
// event sink; the router only decides when to call them.
type Deps interface {
	StartDictation() error
	StopDictationAndTranscribe()
	Inject(text string)

	OpenConversation() error
	StartConversationAudio() error
	CloseConversationGracefully()
	StopConversationHard()

	CancelAllTools()
	DispatchToolCalls(calls []mvtypes.ToolCall)
	SendToolResult(mvtypes.ToolResult)

	EnqueuePlayback(pcm []byte)

	ZeroVisualizer()

	EmitStateChanged(from, to mvtypes.AppState)
	EmitDictationCompleted(text string)
	EmitDictationFailed(reason string)
	EmitLiveTurnStarted()
	EmitLiveTextDelta(s string)
	EmitLiveTurnCompleted()
	EmitLiveInterrupted()
	EmitError(component string, kind mvtypes.ErrorKind, message string)
}

// Router owns AppState and applies the transition table.
type Router struct {
	state mvtypes.AppState
	deps  Deps
}

// New creates a router starting in Idle.
func New(deps Deps) *Router {
	return &Router{state: mvtypes.Idle, deps: deps}
}

// State returns the current AppState.
func (r *Router) State() mvtypes.AppState { return r.state }

// Run drains events until the channel closes, applying each to the state
// machine. This is the router task's event loop.
func (r *Router) Run(events <-chan Event) {
	for ev := range events {
		r.Handle(ev)
	}
}

// Handle applies a single event to the current state. Events with no
// matching transition for the current state are silently ignored, per the
// transition table's explicit "all others are silently ignored" rule.
func (r *Router) Handle(ev Event) {
	switch r.state {
	case mvtypes.Idle:
		r.handleIdle(ev)
	case mvtypes.Dictating:
		r.handleDictating(ev)
	case mvtypes.Transcribing:
		r.handleTranscribing(ev)
	case mvtypes.ConversationOpening:
		r.handleConversationOpening(ev)
	case mvtypes.ConversationActive:
		r.handleConversationActive(ev)
	case mvtypes.ConversationClosing:
		r.handleConversationClosing(ev)
	}
}

func (r *Router) handleIdle(ev Event) {
	switch ev.Kind {
	case EvToggleDictation:
		if err := r.deps.StartDictation(); err != nil {
			r.deps.EmitError("ptt", mvtypes.AudioDeviceError, err.Error())
			return
		}
		r.transition(mvtypes.Dictating)
	case EvToggleConversation:
		if err := r.deps.OpenConversation(); err != nil {
			r.deps.EmitError("livesession", mvtypes.NetworkError, err.Error())
			return
		}
		r.transition(mvtypes.ConversationOpening)
	}
}

func (r *Router) handleDictating(ev Event) {
	if ev.Kind == EvToggleDictation {
		r.deps.StopDictationAndTranscribe()
		r.transition(mvtypes.Transcribing)
	}
}

func (r *Router) handleTranscribing(ev Event) {
	switch ev.Kind {
	case EvDictationCompleted:
		r.deps.Inject(ev.Text)
		r.deps.EmitDictationCompleted(ev.Text)
		r.transition(mvtypes.Idle)
	case EvDictationFailed:
		r.deps.EmitDictationFailed(ev.FailReason)
		r.transition(mvtypes.Idle)
	}
}

func (r *Router) handleConversationOpening(ev Event) {
	switch ev.Kind {
	case EvSetupAcknowledged:
		if err := r.deps.StartConversationAudio(); err != nil {
			r.deps.EmitError("audio", mvtypes.AudioDeviceError, err.Error())
		}
		r.deps.EmitLiveTurnStarted()
		r.transition(mvtypes.ConversationActive)
	case EvTransportError:
		r.deps.EmitError("livesession", mvtypes.NetworkError, ev.Err.Error())
		r.deps.StopConversationHard()
		r.transition(mvtypes.Idle)
	}
}

func (r *Router) handleConversationActive(ev Event) {
	switch ev.Kind {
	case EvToggleConversation:
		r.deps.CloseConversationGracefully()
		r.transition(mvtypes.ConversationClosing)
	case EvTransportError:
		r.deps.CancelAllTools()
		r.deps.EmitError("livesession", mvtypes.NetworkError, ev.Err.Error())
		r.deps.StopConversationHard()
		r.transition(mvtypes.Idle)
	case EvLiveEvent:
		r.handleLiveEventActive(ev.Live)
	case EvToolResult:
		r.deps.SendToolResult(ev.ToolResult)
	}
}

func (r *Router) handleLiveEventActive(ev mvtypes.LiveEvent) {
	switch ev.Kind {
	case mvtypes.EventAudioChunk:
		r.deps.EnqueuePlayback(ev.Audio)
	case mvtypes.EventTextDelta:
		r.deps.EmitLiveTextDelta(ev.Text)
	case mvtypes.EventToolCallRequested:
		r.deps.DispatchToolCalls(ev.ToolCalls)
	case mvtypes.EventTurnComplete:
		r.deps.EmitLiveTurnCompleted()
	case mvtypes.EventInterrupted:
		r.deps.EmitLiveInterrupted()
	case mvtypes.EventError:
		slog.Warn("router: live event error while active", "error", ev.Err)
	}
}

func (r *Router) handleConversationClosing(ev Event) {
	switch ev.Kind {
	case EvDrainComplete, EvTimeout:
		r.deps.StopConversationHard()
		r.transition(mvtypes.Idle)
	case EvTransportError:
		r.deps.EmitError("livesession", mvtypes.NetworkError, ev.Err.Error())
		r.deps.StopConversationHard()
		r.transition(mvtypes.Idle)
	}
}

func (r *Router) transition(to mvtypes.AppState) {
	from := r.state
	r.state = to
	if to == mvtypes.Idle {
		r.deps.ZeroVisualizer()
	}
	r.deps.EmitStateChanged(from, to)
}
