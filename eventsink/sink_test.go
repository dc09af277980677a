package eventsink

import "testing"

func TestStartReturnsWithoutBlocking(t *testing.T) {
	s := NewWebSocketSink()
	// Start must return once bound rather than block for the server's
	// lifetime; a test that hangs here would mean it still blocks.
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestStartSurfacesBindConflict(t *testing.T) {
	first := NewWebSocketSink()
	addr := "127.0.0.1:18734"
	if err := first.Start(addr); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	second := NewWebSocketSink()
	if err := second.Start(addr); err == nil {
		t.Fatal("expected the second bind to the same address to fail")
	}
}

func TestEmitDropsOnFullQueue(t *testing.T) {
	s := NewWebSocketSink()
	c := &client{queue: make(chan Event, 2)}
	s.clients[c] = struct{}{}

	for i := 0; i < 5; i++ {
		s.Emit(NewEvent("state_changed", nil))
	}
	if len(c.queue) != 2 {
		t.Fatalf("expected queue capped at 2, got %d", len(c.queue))
	}
}

func TestNopSinkDiscards(t *testing.T) {
	var s NopSink
	s.Emit(NewEvent("noop", nil)) // must not panic
}
