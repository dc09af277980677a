package tools

import "time"

// timeoutFor returns the per-tool timeout used by Dispatch.
func timeoutFor(name string) time.Duration {
	switch name {
	case "run_command":
		return runCommandTimeout
	case "ask_claude":
		return askClaudeTimeout
	default:
		return 10 * time.Second
	}
}
