// Package mvtypes holds the shared data model for the maVoice core: the
// application state machine, live-session events, tool contracts and the
// visualizer frame published to the renderer.
package mvtypes

import "time"

// AppState is the exhaustive set of states the mode router can be in.
type AppState int

const (
	Idle AppState = iota
	Dictating
	Transcribing
	ConversationOpening
	ConversationActive
	ConversationClosing
)

func (s AppState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dictating:
		return "dictating"
	case Transcribing:
		return "transcribing"
	case ConversationOpening:
		return "conversation_opening"
	case ConversationActive:
		return "conversation_active"
	case ConversationClosing:
		return "conversation_closing"
	default:
		return "unknown"
	}
}

// TurnPhase describes who currently holds the floor in a live conversation.
type TurnPhase int

const (
	UserSpeaking TurnPhase = iota
	UserPaused
	ModelSpeaking
	ModelThinking
)

func (p TurnPhase) String() string {
	switch p {
	case UserSpeaking:
		return "user_speaking"
	case UserPaused:
		return "user_paused"
	case ModelSpeaking:
		return "model_speaking"
	case ModelThinking:
		return "model_thinking"
	default:
		return "unknown"
	}
}

// Config is the fully populated configuration the core operates on.
// Loading it from disk is ambient plumbing (see config package); the core
// only ever consumes this struct.
type Config struct {
	SttAPIKey         string
	LiveAPIKey        string
	SttModel          string
	Language          string
	InitialMode       string // "dictation" | "conversation"
	VoiceName         string
	SystemInstruction string
	Temperature       float64
	Dictionary        string
	Transport         string // "websocket" (default) | "webrtc"
}

// WavBuffer is a canonical mono 16-bit PCM WAV payload, sampled at 16kHz.
type WavBuffer struct {
	SampleRate int
	Samples    []int16
}

// LiveEventKind is the closed set of events the live session downlink can
// deliver to the router.
type LiveEventKind int

const (
	EventAudioChunk LiveEventKind = iota
	EventTextDelta
	EventToolCallRequested
	EventTurnComplete
	EventInterrupted
	EventError
	EventSessionReady
)

// LiveEvent is a single downlink event from a LiveSession.
type LiveEvent struct {
	Kind      LiveEventKind
	Audio     []byte // 24kHz mono s16le, present on EventAudioChunk
	Text      string // present on EventTextDelta
	ToolCalls []ToolCall
	Err       error
}

// ToolCall is a single function-call request surfaced by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of executing a ToolCall.
type ToolResult struct {
	ID     string
	Name   string
	Result map[string]any
	Err    error
}

// VisualizerMode is the two-mode contract the renderer's shader uniforms
// consume: waveform response vs. a "thinking" spinner state.
type VisualizerMode int

const (
	Waveform VisualizerMode = iota
	Processing
)

// VisualizerFrame is a single published snapshot of the HUD's visual state.
// Instances are immutable once published.
type VisualizerFrame struct {
	Mode           VisualizerMode
	UserLevels     [4]float32
	UserIntensity  float32
	AIListLevels   [4]float32
	AIIntensity    float32
	Color          [3]float32
	Timestamp      time.Time
	// TSeconds is seconds elapsed since the publisher started, matching the
	// shader's `time: f32` uniform. The renderer needs a start-relative
	// clock, not the wall-clock Timestamp.
	TSeconds float32
}

// ErrorKind is the closed set of error categories the core reports.
type ErrorKind string

const (
	AudioDeviceError ErrorKind = "audio_device"
	NetworkError     ErrorKind = "network"
	ProtocolError    ErrorKind = "protocol"
	AuthError        ErrorKind = "auth"
	TimeoutError     ErrorKind = "timeout"
	ToolError        ErrorKind = "tool"
	InjectError      ErrorKind = "inject"
	ConfigErrorKind  ErrorKind = "config"
)

// AppError attaches a closed error kind and originating component to an
// underlying error, following the wrapped-error convention used throughout
// the codebase.
type AppError struct {
	Kind      ErrorKind
	Component string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " in " + e.Component
	}
	return string(e.Kind) + " in " + e.Component + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// NewError builds an AppError.
func NewError(kind ErrorKind, component string, err error) *AppError {
	return &AppError{Kind: kind, Component: component, Err: err}
}
