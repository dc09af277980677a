package tools

import (
	"context"
	"testing"
	"time"

	"github.com/mavoice/mavoice/internal/mvtypes"
	"github.com/mavoice/mavoice/memory"
)

type fakeStore struct {
	matches []memory.Match
}

func (f *fakeStore) Search(ctx context.Context, query string, limit int) ([]memory.Match, error) {
	return f.matches, nil
}

func (f *fakeStore) Remember(ctx context.Context, content string, tags []string) (string, time.Time, error) {
	return "fake-id", time.Unix(0, 0).UTC(), nil
}

func TestDispatchRunCommand(t *testing.T) {
	d := New(&fakeStore{})
	results := make(chan mvtypes.ToolResult, 1)
	call := mvtypes.ToolCall{ID: "1", Name: "run_command", Args: map[string]any{"command": "echo hi"}}
	d.Dispatch(context.Background(), call, results)

	select {
	case res := <-results:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Result["stdout"] != "hi\n" {
			t.Fatalf("unexpected stdout: %v", res.Result["stdout"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestDispatchRunCommandUsesCwd(t *testing.T) {
	d := New(&fakeStore{})
	results := make(chan mvtypes.ToolResult, 1)
	call := mvtypes.ToolCall{ID: "1b", Name: "run_command", Args: map[string]any{"command": "pwd", "cwd": "/tmp"}}
	d.Dispatch(context.Background(), call, results)

	select {
	case res := <-results:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if got := res.Result["stdout"]; got != "/tmp\n" {
			t.Fatalf("expected pwd to report /tmp, got %v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestDispatchRemember(t *testing.T) {
	d := New(&fakeStore{})
	results := make(chan mvtypes.ToolResult, 1)
	call := mvtypes.ToolCall{ID: "2", Name: "remember", Args: map[string]any{"content": "buy milk"}}
	d.Dispatch(context.Background(), call, results)

	res := <-results
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Result["id"] != "fake-id" {
		t.Fatalf("unexpected id: %v", res.Result["id"])
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d := New(&fakeStore{})
	results := make(chan mvtypes.ToolResult, 1)
	call := mvtypes.ToolCall{ID: "3", Name: "does_not_exist"}
	d.Dispatch(context.Background(), call, results)

	res := <-results
	if res.Err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestCancelAllDiscardsResults(t *testing.T) {
	d := New(&fakeStore{})
	results := make(chan mvtypes.ToolResult, 1)
	parentCtx, cancel := context.WithCancel(context.Background())
	call := mvtypes.ToolCall{ID: "4", Name: "run_command", Args: map[string]any{"command": "sleep 2"}}
	d.Dispatch(parentCtx, call, results)
	cancel()

	select {
	case <-results:
		t.Fatal("expected result to be discarded after parent cancellation")
	case <-time.After(300 * time.Millisecond):
	}
}
