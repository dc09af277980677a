// Package tools implements the four fixed-schema tools the live model can
// invoke: search_memory, remember, run_command, and ask_claude. Each call
// runs concurrently with the audio pipeline and is cancelled if the
// conversation session it belongs to closes first.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mavoice/mavoice/internal/mvtypes"
	"github.com/mavoice/mavoice/memory"
)

// Dispatcher executes tool calls concurrently and tracks in-flight calls so
// they can be cancelled together when a conversation session ends.
type Dispatcher struct {
	store memory.Store

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New builds a Dispatcher backed by the given memory store.
func New(store memory.Store) *Dispatcher {
	return &Dispatcher{store: store, cancels: make(map[string]context.CancelFunc)}
}

// Dispatch runs a tool call in its own goroutine and delivers the result on
// results. parent should be cancelled when the owning conversation session
// closes; per I4, any call still in flight at that point is abandoned and
// its result discarded rather than delivered.
func (d *Dispatcher) Dispatch(parent context.Context, call mvtypes.ToolCall, results chan<- mvtypes.ToolResult) {
	timeout := toolTimeout(call.Name)
	ctx, cancel := context.WithTimeout(parent, timeout)

	d.mu.Lock()
	d.cancels[call.ID] = cancel
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.cancels, call.ID)
			d.mu.Unlock()
			cancel()
		}()

		result, err := d.execute(ctx, call)
		if ctx.Err() == context.Canceled {
			// The owning session closed or CancelAll abandoned the call;
			// discard rather than deliver (I4).
			return
		}
		results <- mvtypes.ToolResult{ID: call.ID, Name: call.Name, Result: result, Err: err}
	}()
}

// CancelAll abandons every in-flight call, discarding their eventual
// results. Called on any transition out of a Conversation* state.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, cancel := range d.cancels {
		cancel()
		delete(d.cancels, id)
	}
}

func (d *Dispatcher) execute(ctx context.Context, call mvtypes.ToolCall) (map[string]any, error) {
	switch call.Name {
	case "search_memory":
		return d.searchMemory(ctx, call.Args)
	case "remember":
		return d.remember(ctx, call.Args)
	case "run_command":
		return runCommand(ctx, call.Args)
	case "ask_claude":
		return askClaude(ctx, call.Args)
	default:
		slog.Warn("tools: unknown tool", "name", call.Name)
		return nil, fmt.Errorf("tools: unknown tool %q", call.Name)
	}
}

func toolTimeout(name string) time.Duration {
	return timeoutFor(name)
}
