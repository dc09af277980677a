package router

import (
	"errors"
	"testing"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

type fakeDeps struct {
	startDictationErr error
	openErr           error

	startedDictation  bool
	stoppedDictation  bool
	injected          string
	openedConv        bool
	startedConvAudio  bool
	closedGracefully  bool
	stoppedHard       bool
	cancelledTools    bool
	dispatched        []mvtypes.ToolCall
	sentResults       []mvtypes.ToolResult
	enqueuedPlayback  [][]byte
	zeroed            bool
	transitions       []([2]mvtypes.AppState)
	dictationOK       string
	dictationFailed   string
	turnStarted       bool
	textDeltas        []string
	turnCompleted     bool
	interrupted       bool
	errors            []string
}

func (f *fakeDeps) StartDictation() error {
	f.startedDictation = true
	return f.startDictationErr
}
func (f *fakeDeps) StopDictationAndTranscribe() { f.stoppedDictation = true }
func (f *fakeDeps) Inject(text string)          { f.injected = text }

func (f *fakeDeps) OpenConversation() error {
	f.openedConv = true
	return f.openErr
}
func (f *fakeDeps) StartConversationAudio() error { f.startedConvAudio = true; return nil }
func (f *fakeDeps) CloseConversationGracefully()  { f.closedGracefully = true }
func (f *fakeDeps) StopConversationHard()         { f.stoppedHard = true }

func (f *fakeDeps) CancelAllTools()                            { f.cancelledTools = true }
func (f *fakeDeps) DispatchToolCalls(calls []mvtypes.ToolCall)  { f.dispatched = calls }
func (f *fakeDeps) SendToolResult(r mvtypes.ToolResult)         { f.sentResults = append(f.sentResults, r) }

func (f *fakeDeps) EnqueuePlayback(pcm []byte) { f.enqueuedPlayback = append(f.enqueuedPlayback, pcm) }

func (f *fakeDeps) ZeroVisualizer() { f.zeroed = true }

func (f *fakeDeps) EmitStateChanged(from, to mvtypes.AppState) {
	f.transitions = append(f.transitions, [2]mvtypes.AppState{from, to})
}
func (f *fakeDeps) EmitDictationCompleted(text string)  { f.dictationOK = text }
func (f *fakeDeps) EmitDictationFailed(reason string)   { f.dictationFailed = reason }
func (f *fakeDeps) EmitLiveTurnStarted()                { f.turnStarted = true }
func (f *fakeDeps) EmitLiveTextDelta(s string)          { f.textDeltas = append(f.textDeltas, s) }
func (f *fakeDeps) EmitLiveTurnCompleted()              { f.turnCompleted = true }
func (f *fakeDeps) EmitLiveInterrupted()                { f.interrupted = true }
func (f *fakeDeps) EmitError(component string, kind mvtypes.ErrorKind, message string) {
	f.errors = append(f.errors, component+":"+string(kind)+":"+message)
}

func TestDictationRoundTrip(t *testing.T) {
	deps := &fakeDeps{}
	r := New(deps)

	r.Handle(Event{Kind: EvToggleDictation})
	if r.State() != mvtypes.Dictating || !deps.startedDictation {
		t.Fatalf("expected Dictating, got %v", r.State())
	}

	r.Handle(Event{Kind: EvToggleDictation})
	if r.State() != mvtypes.Transcribing || !deps.stoppedDictation {
		t.Fatalf("expected Transcribing, got %v", r.State())
	}

	r.Handle(Event{Kind: EvDictationCompleted, Text: "hello world"})
	if r.State() != mvtypes.Idle {
		t.Fatalf("expected Idle, got %v", r.State())
	}
	if deps.injected != "hello world" {
		t.Fatalf("expected injection of transcript, got %q", deps.injected)
	}
	if deps.dictationOK != "hello world" {
		t.Fatalf("expected DictationCompleted event emitted")
	}
	if !deps.zeroed {
		t.Fatalf("expected visualizer zeroed on return to Idle")
	}
}

func TestDictationFailurePathSkipsInjection(t *testing.T) {
	deps := &fakeDeps{}
	r := New(deps)
	r.state = mvtypes.Transcribing

	r.Handle(Event{Kind: EvDictationFailed, FailReason: "network"})
	if r.State() != mvtypes.Idle {
		t.Fatalf("expected Idle, got %v", r.State())
	}
	if deps.injected != "" {
		t.Fatalf("must not inject on failed dictation")
	}
	if deps.dictationFailed != "network" {
		t.Fatalf("expected DictationFailed emitted with reason")
	}
}

func TestStartDictationErrorStaysIdle(t *testing.T) {
	deps := &fakeDeps{startDictationErr: errors.New("device busy")}
	r := New(deps)

	r.Handle(Event{Kind: EvToggleDictation})
	if r.State() != mvtypes.Idle {
		t.Fatalf("expected to remain Idle on start error, got %v", r.State())
	}
	if len(deps.errors) != 1 {
		t.Fatalf("expected one error emitted, got %d", len(deps.errors))
	}
}

func TestConversationFullLifecycle(t *testing.T) {
	deps := &fakeDeps{}
	r := New(deps)

	r.Handle(Event{Kind: EvToggleConversation})
	if r.State() != mvtypes.ConversationOpening || !deps.openedConv {
		t.Fatalf("expected ConversationOpening, got %v", r.State())
	}

	r.Handle(Event{Kind: EvSetupAcknowledged})
	if r.State() != mvtypes.ConversationActive || !deps.turnStarted {
		t.Fatalf("expected ConversationActive, got %v", r.State())
	}
	if !deps.startedConvAudio {
		t.Fatalf("expected conversation audio started on setup acknowledgement")
	}

	r.Handle(Event{Kind: EvLiveEvent, Live: mvtypes.LiveEvent{Kind: mvtypes.EventTextDelta, Text: "hi"}})
	if len(deps.textDeltas) != 1 || deps.textDeltas[0] != "hi" {
		t.Fatalf("expected text delta forwarded")
	}

	r.Handle(Event{Kind: EvLiveEvent, Live: mvtypes.LiveEvent{Kind: mvtypes.EventAudioChunk, Audio: []byte{1, 2, 3}}})
	if len(deps.enqueuedPlayback) != 1 {
		t.Fatalf("expected AudioChunk routed to playback")
	}

	r.Handle(Event{Kind: EvLiveEvent, Live: mvtypes.LiveEvent{Kind: mvtypes.EventTurnComplete}})
	if !deps.turnCompleted {
		t.Fatalf("expected TurnComplete emitted")
	}

	call := mvtypes.ToolCall{ID: "1", Name: "search_memory"}
	r.Handle(Event{Kind: EvLiveEvent, Live: mvtypes.LiveEvent{Kind: mvtypes.EventToolCallRequested, ToolCalls: []mvtypes.ToolCall{call}}})
	if len(deps.dispatched) != 1 || deps.dispatched[0].ID != "1" {
		t.Fatalf("expected tool call dispatched")
	}

	r.Handle(Event{Kind: EvToolResult, ToolResult: mvtypes.ToolResult{ID: "1", Name: "search_memory"}})
	if len(deps.sentResults) != 1 {
		t.Fatalf("expected tool result forwarded to session")
	}

	r.Handle(Event{Kind: EvToggleConversation})
	if r.State() != mvtypes.ConversationClosing || !deps.closedGracefully {
		t.Fatalf("expected ConversationClosing, got %v", r.State())
	}

	r.Handle(Event{Kind: EvDrainComplete})
	if r.State() != mvtypes.Idle || !deps.stoppedHard {
		t.Fatalf("expected Idle after drain, got %v", r.State())
	}
}

func TestConversationClosingTimesOutToIdle(t *testing.T) {
	deps := &fakeDeps{}
	r := New(deps)
	r.state = mvtypes.ConversationClosing

	r.Handle(Event{Kind: EvTimeout})
	if r.State() != mvtypes.Idle || !deps.stoppedHard {
		t.Fatalf("expected forced Idle on drain timeout, got %v", r.State())
	}
}

func TestTransportErrorFromAnyConversationStateGoesIdle(t *testing.T) {
	for _, start := range []mvtypes.AppState{mvtypes.ConversationOpening, mvtypes.ConversationActive, mvtypes.ConversationClosing} {
		deps := &fakeDeps{}
		r := New(deps)
		r.state = start

		r.Handle(Event{Kind: EvTransportError, Err: errors.New("closed")})
		if r.State() != mvtypes.Idle {
			t.Fatalf("from %v: expected Idle after transport error, got %v", start, r.State())
		}
		if !deps.stoppedHard {
			t.Fatalf("from %v: expected hard stop on transport error", start)
		}
		if len(deps.errors) != 1 {
			t.Fatalf("from %v: expected error emitted", start)
		}
	}
}

func TestActiveTransportErrorCancelsInFlightTools(t *testing.T) {
	deps := &fakeDeps{}
	r := New(deps)
	r.state = mvtypes.ConversationActive

	r.Handle(Event{Kind: EvTransportError, Err: errors.New("dropped")})
	if !deps.cancelledTools {
		t.Fatalf("expected in-flight tool calls cancelled on transport error while active")
	}
}

func TestUnhandledEventsAreIgnored(t *testing.T) {
	deps := &fakeDeps{}
	r := New(deps)

	r.Handle(Event{Kind: EvDictationCompleted, Text: "should be ignored"})
	if r.State() != mvtypes.Idle {
		t.Fatalf("expected Idle state unaffected by unrelated event, got %v", r.State())
	}
	if len(deps.transitions) != 0 {
		t.Fatalf("expected no transition recorded for an ignored event")
	}
}

func TestEveryReachableStateIsOneOfSix(t *testing.T) {
	deps := &fakeDeps{}
	r := New(deps)
	valid := map[mvtypes.AppState]bool{
		mvtypes.Idle: true, mvtypes.Dictating: true, mvtypes.Transcribing: true,
		mvtypes.ConversationOpening: true, mvtypes.ConversationActive: true, mvtypes.ConversationClosing: true,
	}

	seq := []Event{
		{Kind: EvToggleDictation},
		{Kind: EvToggleDictation},
		{Kind: EvDictationCompleted, Text: "x"},
		{Kind: EvToggleConversation},
		{Kind: EvSetupAcknowledged},
		{Kind: EvToggleConversation},
		{Kind: EvDrainComplete},
	}
	for _, ev := range seq {
		r.Handle(ev)
		if !valid[r.State()] {
			t.Fatalf("state %v is not one of the six AppState variants", r.State())
		}
	}
}
