package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mavoice/mavoice/audio"
	"github.com/mavoice/mavoice/config"
	"github.com/mavoice/mavoice/eventsink"
	"github.com/mavoice/mavoice/hotkey"
	"github.com/mavoice/mavoice/inject"
	"github.com/mavoice/mavoice/internal/mvtypes"
	"github.com/mavoice/mavoice/livesession"
	"github.com/mavoice/mavoice/memory"
	"github.com/mavoice/mavoice/ptt"
	"github.com/mavoice/mavoice/router"
	"github.com/mavoice/mavoice/stt"
	"github.com/mavoice/mavoice/tools"
	"github.com/mavoice/mavoice/visualizer"
)

const (
	setupHandshakeTimeout = 10 * time.Second
	conversationDrain     = 3 * time.Second
	dashboardAddr         = "127.0.0.1:3001"
	analyserTickInterval  = 33 * time.Millisecond
)

// App wires the core packages together and implements router.Deps. It owns
// no business logic of its own beyond translating router side effects into
// calls on the packages that do.
type App struct {
	cfg mvtypes.Config

	capture    *audio.Capture
	playback   *audio.Playback
	analyser   *audio.Analyser
	aiAnalyser *audio.Analyser
	recorder   *ptt.Recorder
	sttClt     *stt.Client
	injector   inject.Injector
	memStore   memory.Store
	dispatch   *tools.Dispatcher
	hotkeys    *hotkey.Manager
	sink       eventsink.Sink

	frameCell *visualizer.FrameCell
	publisher *visualizer.Publisher

	rtr    *router.Router
	events chan router.Event

	mu          sync.Mutex
	session     *livesession.Session
	closeTimer  *time.Timer
	uplinkUnsub func()
}

func NewApp(cfg mvtypes.Config) *App {
	return &App{cfg: cfg, events: make(chan router.Event, 64)}
}

// Init constructs every subsystem. Audio device failures are fatal;
// everything else degrades the corresponding mode rather than the process.
func (a *App) Init() error {
	capture, err := audio.NewCapture(30 * time.Second)
	if err != nil {
		return fmt.Errorf("open capture device: %w", err)
	}
	a.capture = capture

	playback, err := audio.NewPlayback()
	if err != nil {
		return fmt.Errorf("open playback device: %w", err)
	}
	a.playback = playback

	a.analyser = audio.NewAnalyser(audio.SampleRate)
	a.aiAnalyser = audio.NewAnalyser(audio.PlaybackSampleRate)
	a.recorder = ptt.NewRecorder(a.capture)
	a.sttClt = stt.NewClient(a.cfg.SttAPIKey, "")

	if injector, err := inject.New(); err != nil {
		slog.Warn("text injection unavailable", "error", err)
	} else {
		a.injector = injector
	}

	store, err := a.openMemoryStore()
	if err != nil {
		slog.Warn("memory store unavailable", "error", err)
		a.memStore = noopStore{}
	} else {
		a.memStore = store
	}
	a.dispatch = tools.New(a.memStore)

	a.frameCell = &visualizer.FrameCell{}
	a.publisher = visualizer.NewPublisher(a.frameCell)

	dashboard := eventsink.NewWebSocketSink()
	if err := dashboard.Start(dashboardAddr); err != nil {
		slog.Warn("dashboard sink disabled", "error", err)
		a.sink = eventsink.NopSink{}
	} else {
		a.sink = dashboard
	}

	a.hotkeys = hotkey.NewManager(nil)
	a.rtr = router.New(a)

	a.capture.OnAudio(a.onAnalyserSamples)
	a.playback.OnAudio(a.onAIAnalyserSamples)
	a.recorder.OnMaxDuration(func() {
		a.events <- router.Event{Kind: router.EvToggleDictation}
	})

	return nil
}

func (a *App) openMemoryStore() (memory.Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := home + "/.local/share/mavoice/memory"
	return memory.OpenBadgerStore(path)
}

// Run starts the hotkey listener and drains the router's event channel
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	go a.hotkeys.Start(a.onHotkeyAction)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.events:
			a.rtr.Handle(ev)
		}
	}
}

func (a *App) Shutdown() {
	a.hotkeys.Stop()
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session != nil {
		_ = session.Close()
	}
	if closer, ok := a.memStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

func (a *App) onHotkeyAction(action hotkey.Action) {
	switch action {
	case hotkey.ToggleDictation:
		a.events <- router.Event{Kind: router.EvToggleDictation}
	case hotkey.ToggleConversation:
		a.events <- router.Event{Kind: router.EvToggleConversation}
	}
}

func (a *App) onAnalyserSamples(samples []float32) {
	levels, intensity := a.analyser.Bands(samples, analyserTickInterval)
	a.publisher.TickUser(a.rtr.State(), levels, intensity)
}

// onAIAnalyserSamples feeds the model's downlink audio through a dedicated
// analyser as it is enqueued for playback, publishing the AI side of the
// visualizer independently of the capture-side cadence.
func (a *App) onAIAnalyserSamples(samples []float32) {
	levels, intensity := a.aiAnalyser.Bands(samples, analyserTickInterval)
	a.publisher.TickAI(a.rtr.State(), levels, intensity)
}

// ── router.Deps ─────────────────────────────────────────────────────────

func (a *App) StartDictation() error {
	return a.recorder.Start()
}

func (a *App) StopDictationAndTranscribe() {
	go func() {
		wav, err := a.recorder.Stop()
		if err != nil {
			a.events <- router.Event{Kind: router.EvDictationFailed, FailReason: err.Error()}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), stt.UploadTimeout)
		defer cancel()
		text, err := a.sttClt.Transcribe(ctx, wav, a.cfg)
		if err != nil {
			a.events <- router.Event{Kind: router.EvDictationFailed, FailReason: err.Error()}
			return
		}
		a.events <- router.Event{Kind: router.EvDictationCompleted, Text: text}
	}()
}

func (a *App) Inject(text string) {
	if a.injector == nil {
		return
	}
	if err := a.injector.Inject(text, inject.TargetHint{}); err != nil {
		a.EmitError("inject", mvtypes.InjectError, err.Error())
	}
}

func (a *App) OpenConversation() error {
	if a.cfg.LiveAPIKey == "" {
		return errors.New("conversation mode disabled: no live_api_key configured")
	}

	var transport livesession.Transport
	if a.cfg.Transport == "webrtc" {
		transport = livesession.NewWebRTCTransport(a.exchangeSDP)
	} else {
		transport = livesession.NewWebSocketTransport(livesession.DefaultLiveURL, a.cfg.LiveAPIKey)
	}
	session := livesession.NewSession(transport)

	ctx, cancel := context.WithTimeout(context.Background(), setupHandshakeTimeout)
	defer cancel()
	opts := livesession.SetupOptions{
		APIKey:            a.cfg.LiveAPIKey,
		VoiceName:         a.cfg.VoiceName,
		SystemInstruction: a.cfg.SystemInstruction,
		Language:          a.cfg.Language,
		Temperature:       a.cfg.Temperature,
	}
	if err := session.Open(ctx, opts); err != nil {
		return err
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	go a.forwardLiveEvents(session)
	return nil
}

// exchangeSDP is the WebRTC signalling callback, only ever used when
// cfg.Transport == "webrtc". No signalling endpoint is wired in: it always
// returns an error, so a webrtc transport fails to connect.
func (a *App) exchangeSDP(ctx context.Context, offerSDP string) (string, error) {
	return "", errors.New("webrtc signalling requires an out-of-band exchange endpoint")
}

func (a *App) forwardLiveEvents(session *livesession.Session) {
	for ev := range session.Events() {
		if ev.Kind == mvtypes.EventSessionReady {
			a.events <- router.Event{Kind: router.EvSetupAcknowledged}
			continue
		}
		if ev.Kind == mvtypes.EventError {
			a.events <- router.Event{Kind: router.EvTransportError, Err: ev.Err}
			continue
		}
		a.events <- router.Event{Kind: router.EvLiveEvent, Live: ev}
	}
}

func (a *App) StartConversationAudio() error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return errors.New("no active live session")
	}

	a.mu.Lock()
	if a.uplinkUnsub != nil {
		a.uplinkUnsub()
	}
	a.mu.Unlock()

	unsub := a.capture.OnAudio(func(samples []float32) {
		session.SendAudio(audio.Int16LEBytes(audio.FloatToPCM16(samples)))
		levels, intensity := a.analyser.Bands(samples, analyserTickInterval)
		a.publisher.TickUser(a.rtr.State(), levels, intensity)
	})
	a.mu.Lock()
	a.uplinkUnsub = unsub
	a.mu.Unlock()

	if err := a.capture.Start(); err != nil {
		return err
	}
	return a.playback.Start()
}

func (a *App) CloseConversationGracefully() {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		a.events <- router.Event{Kind: router.EvDrainComplete}
		return
	}

	a.closeTimer = time.AfterFunc(conversationDrain, func() {
		a.events <- router.Event{Kind: router.EvTimeout}
	})
	go func() {
		_ = session.Close()
		if a.closeTimer.Stop() {
			a.events <- router.Event{Kind: router.EvDrainComplete}
		}
	}()
}

// StopConversationHard tears down the uplink and downlink audio paths. It
// always unregisters this conversation's capture callback so a stale
// closure never fires SendAudio into the next conversation's closed session.
func (a *App) StopConversationHard() {
	if a.closeTimer != nil {
		a.closeTimer.Stop()
	}

	a.mu.Lock()
	if a.uplinkUnsub != nil {
		a.uplinkUnsub()
		a.uplinkUnsub = nil
	}
	a.mu.Unlock()

	_ = a.capture.Stop()
	_ = a.playback.Stop()
	a.playback.Clear()
	a.dispatch.CancelAll()

	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
}

func (a *App) CancelAllTools() {
	a.dispatch.CancelAll()
}

func (a *App) DispatchToolCalls(calls []mvtypes.ToolCall) {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return
	}

	for _, call := range calls {
		a.emitSink("tool_call_started", map[string]any{"call_id": call.ID, "name": call.Name, "args": call.Args})
		results := make(chan mvtypes.ToolResult, 1)
		start := time.Now()
		a.dispatch.Dispatch(context.Background(), call, results)
		go func(call mvtypes.ToolCall, start time.Time) {
			result, ok := <-results
			if !ok {
				return
			}
			a.events <- router.Event{Kind: router.EvToolResult, ToolResult: result}
			a.emitSink("tool_call_completed", map[string]any{
				"call_id":    result.ID,
				"ok":         result.Err == nil,
				"elapsed_ms": time.Since(start).Milliseconds(),
			})
		}(call, start)
	}
}

func (a *App) EnqueuePlayback(pcm []byte) {
	a.playback.Enqueue(pcm)
}

func (a *App) SendToolResult(result mvtypes.ToolResult) {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := session.SendToolResult(ctx, result); err != nil {
		slog.Warn("send tool result", "error", err)
	}
}

func (a *App) ZeroVisualizer() {
	a.publisher.Zero()
}

func (a *App) EmitStateChanged(from, to mvtypes.AppState) {
	a.emitSink("state_changed", map[string]any{"from": from.String(), "to": to.String()})
}

func (a *App) EmitDictationCompleted(text string) {
	a.emitSink("dictation_completed", map[string]any{"text": text})
}

func (a *App) EmitDictationFailed(reason string) {
	a.emitSink("dictation_failed", map[string]any{"reason": reason})
}

func (a *App) EmitLiveTurnStarted() {
	a.emitSink("live_turn_started", nil)
}

func (a *App) EmitLiveTextDelta(s string) {
	a.emitSink("live_text_delta", map[string]any{"s": s})
}

// EmitLiveTurnCompleted reports the model yielding the floor back to the
// user. ai_playing is derived from the playback ring rather than tracked as
// state here: it naturally reads false once the ring has drained.
func (a *App) EmitLiveTurnCompleted() {
	a.emitSink("live_turn_completed", map[string]any{"ai_playing": a.playback.IsPlaying()})
}

func (a *App) EmitLiveInterrupted() {
	a.playback.Clear()
	a.emitSink("live_interrupted", nil)
}

func (a *App) EmitError(component string, kind mvtypes.ErrorKind, message string) {
	slog.Error("app error", "component", component, "kind", kind, "message", message)
	a.emitSink("error", map[string]any{"component": component, "kind": string(kind), "message": message})
}

func (a *App) emitSink(eventType string, payload map[string]any) {
	a.sink.Emit(eventsink.NewEvent(eventType, payload))
}

type noopStore struct{}

func (noopStore) Search(ctx context.Context, query string, limit int) ([]memory.Match, error) {
	return nil, nil
}

func (noopStore) Remember(ctx context.Context, content string, tags []string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("memory store unavailable")
}

func main() {
	level := slog.LevelInfo
	if os.Getenv("MAVOICE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	path, err := config.DefaultPath()
	if err != nil {
		slog.Error("resolve config path", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	app := NewApp(cfg)
	if err := app.Init(); err != nil {
		slog.Error("initialize", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app.Run(ctx)
	app.Shutdown()
	slog.Info("shutdown complete")
}
