// Package hotkey implements global hotkey registration via
// github.com/robotn/gohook, translating raw key-down events into
// edge-triggered Binding callbacks: holding a key does not repeat, and a
// debounce window absorbs OS key-repeat and near-simultaneous chords.
package hotkey

import (
	"log/slog"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// DebounceWindow is the minimum spacing between two firings of the same
// binding, per the edge-triggered hotkey contract.
const DebounceWindow = 200 * time.Millisecond

// Action identifies a bound hotkey action.
type Action string

const (
	ToggleDictation    Action = "toggle_dictation"
	ToggleConversation Action = "toggle_conversation"
)

// Binding maps a key combination to an Action.
type Binding struct {
	Keys   []string
	Action Action
}

// Manager owns global hotkey registration and edge-triggered dispatch.
type Manager struct {
	bindings []Binding

	mu       sync.Mutex
	lastFire map[Action]time.Time

	stop chan struct{}
}

// NewManager builds a Manager for the given bindings. Defaults match the
// external interface: F2 toggles dictation, F3 toggles the live
// conversation.
func NewManager(bindings []Binding) *Manager {
	if bindings == nil {
		bindings = []Binding{
			{Keys: []string{"f2"}, Action: ToggleDictation},
			{Keys: []string{"f3"}, Action: ToggleConversation},
		}
	}
	return &Manager{
		bindings: bindings,
		lastFire: make(map[Action]time.Time),
		stop:     make(chan struct{}),
	}
}

// Start begins listening for global key events and delivers edge-triggered
// actions to onAction. It blocks until Stop is called or the underlying
// hook stream ends, so callers should run it in its own goroutine.
func (m *Manager) Start(onAction func(Action)) {
	for _, b := range m.bindings {
		binding := b
		hook.Register(hook.KeyDown, binding.Keys, func(e hook.Event) {
			m.fire(binding.Action, onAction)
		})
	}

	s := hook.Start()
	defer hook.End()

	events := hook.Process(s)
	for {
		select {
		case <-m.stop:
			return
		case _, ok := <-events:
			if !ok {
				return
			}
		}
	}
}

// Stop ends the hook event loop.
func (m *Manager) Stop() {
	close(m.stop)
}

func (m *Manager) fire(action Action, onAction func(Action)) {
	m.mu.Lock()
	now := time.Now()
	if last, ok := m.lastFire[action]; ok && now.Sub(last) < DebounceWindow {
		m.mu.Unlock()
		return
	}
	m.lastFire[action] = now
	m.mu.Unlock()

	slog.Debug("hotkey: fired", "action", action)
	onAction(action)
}
