package router

import "github.com/mavoice/mavoice/internal/mvtypes"

// EventKind is the closed set of events the router's single-threaded event
// loop consumes, merged from hotkeys, the live session and the tool
// dispatcher. There is no analyser event kind: analyser snapshots feed the
// visualizer publisher directly and never reach the router.
type EventKind int

const (
	EvToggleDictation EventKind = iota
	EvToggleConversation
	EvDictationCompleted
	EvDictationFailed
	EvSetupAcknowledged
	EvDrainComplete
	EvTimeout
	EvTransportError
	EvLiveEvent
	EvToolResult
)

// Event is a single item on the router's merged input channel.
type Event struct {
	Kind       EventKind
	Text       string // DictationCompleted
	FailReason string // DictationFailed
	Live       mvtypes.LiveEvent
	ToolResult mvtypes.ToolResult
	Err        error
}
