package livesession

import "testing"

func TestParseToolCallsAssignsMissingID(t *testing.T) {
	extra := map[string]interface{}{
		"calls": []interface{}{
			map[string]interface{}{"name": "run_command", "args": map[string]interface{}{"command": "ls"}},
		},
	}
	calls := parseToolCalls(extra)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].ID == "" {
		t.Fatal("expected generated ID for call missing one")
	}
	if calls[0].Name != "run_command" {
		t.Fatalf("unexpected name %q", calls[0].Name)
	}
}

func TestParseToolCallsIgnoresMalformed(t *testing.T) {
	extra := map[string]interface{}{"calls": "not-a-list"}
	if calls := parseToolCalls(extra); calls != nil {
		t.Fatalf("expected nil for malformed calls, got %v", calls)
	}
}
