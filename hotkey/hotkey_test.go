package hotkey

import (
	"testing"
	"time"
)

func TestFireDebouncesRepeats(t *testing.T) {
	m := NewManager(nil)
	var fired int
	m.fire(ToggleDictation, func(Action) { fired++ })
	m.fire(ToggleDictation, func(Action) { fired++ })
	if fired != 1 {
		t.Fatalf("expected 1 firing within debounce window, got %d", fired)
	}
}

func TestFireAllowsAfterDebounceWindow(t *testing.T) {
	m := NewManager(nil)
	var fired int
	m.mu.Lock()
	m.lastFire[ToggleDictation] = time.Now().Add(-DebounceWindow - time.Millisecond)
	m.mu.Unlock()
	m.fire(ToggleDictation, func(Action) { fired++ })
	if fired != 1 {
		t.Fatalf("expected firing after debounce window elapsed, got %d", fired)
	}
}

func TestFireIsPerAction(t *testing.T) {
	m := NewManager(nil)
	var dictation, conversation int
	m.fire(ToggleDictation, func(Action) { dictation++ })
	m.fire(ToggleConversation, func(Action) { conversation++ })
	if dictation != 1 || conversation != 1 {
		t.Fatalf("expected independent debounce per action, got dictation=%d conversation=%d", dictation, conversation)
	}
}

func TestDefaultBindings(t *testing.T) {
	m := NewManager(nil)
	if len(m.bindings) != 2 {
		t.Fatalf("expected 2 default bindings, got %d", len(m.bindings))
	}
}
