// Package inject pastes a dictation result into whatever text field
// currently has focus. Failure is reported, never silently swallowed;
// callers treat InjectError as non-fatal to the dictation result itself.
package inject

import "errors"

// ErrUnsupported is returned on platforms without an injection backend.
var ErrUnsupported = errors.New("inject: unsupported platform")

// TargetHint optionally identifies the window that should receive the
// injected text, for platforms that can address a specific window rather
// than "whatever has focus right now". The zero value means "current
// focus", preserving the simpler single-argument inject(text) contract.
type TargetHint struct {
	WindowID uint64
	Valid    bool
}

// Injector pastes text into the active input target.
type Injector interface {
	Inject(text string, target TargetHint) error
}

// New returns the platform injector.
func New() (Injector, error) {
	return newInjector()
}
