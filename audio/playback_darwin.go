//go:build darwin

package audio

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -mmacosx-version-min=13.0
#cgo LDFLAGS: -framework AVFoundation -framework CoreAudio -framework Foundation

#include <stdlib.h>

extern int mavoice_startPlayback(int sampleRate, char** errOut);
extern void mavoice_stopPlayback(void);
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	playbackPullMu sync.RWMutex
	playbackPull   func(out []int16) int
)

//export goPlaybackPull
func goPlaybackPull(buf *C.short, count C.int) C.int {
	n := int(count)
	if n <= 0 {
		return 0
	}
	playbackPullMu.RLock()
	pull := playbackPull
	playbackPullMu.RUnlock()
	if pull == nil {
		return 0
	}
	out := unsafe.Slice((*int16)(unsafe.Pointer(buf)), n)
	return C.int(pull(out))
}

type darwinPlayback struct {
	mu      sync.Mutex
	running bool
}

func newPlaybackImpl() (playbackImpl, error) {
	return &darwinPlayback{}, nil
}

func (d *darwinPlayback) start(sampleRate int, pull func(out []int16) int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("audio: already playing")
	}

	playbackPullMu.Lock()
	playbackPull = pull
	playbackPullMu.Unlock()

	var errStr *C.char
	if C.mavoice_startPlayback(C.int(sampleRate), &errStr) != 0 {
		playbackPullMu.Lock()
		playbackPull = nil
		playbackPullMu.Unlock()
		if errStr != nil {
			err := errors.New(C.GoString(errStr))
			C.free(unsafe.Pointer(errStr))
			return err
		}
		return errors.New("audio: unknown playback error")
	}

	d.running = true
	return nil
}

func (d *darwinPlayback) stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	C.mavoice_stopPlayback()
	playbackPullMu.Lock()
	playbackPull = nil
	playbackPullMu.Unlock()
	d.running = false
	return nil
}
