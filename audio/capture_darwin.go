//go:build darwin

package audio

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -mmacosx-version-min=13.0
#cgo LDFLAGS: -framework AVFoundation -framework CoreAudio -framework Foundation

#include <stdlib.h>

extern int mavoice_startCapture(int sampleRate, char** errOut);
extern void mavoice_stopCapture(void);
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	captureHandlerMu sync.RWMutex
	captureHandler   func([]float32)
)

//export goCaptureCallback
func goCaptureCallback(samples *C.float, count C.int) {
	n := int(count)
	if n <= 0 {
		return
	}
	captureHandlerMu.RLock()
	h := captureHandler
	captureHandlerMu.RUnlock()
	if h == nil {
		return
	}
	// Safe because samples are consumed synchronously before this call returns.
	h(unsafe.Slice((*float32)(unsafe.Pointer(samples)), n))
}

type darwinCapture struct {
	mu      sync.Mutex
	running bool
}

func newCaptureImpl() (captureImpl, error) {
	return &darwinCapture{}, nil
}

func (d *darwinCapture) start(sampleRate int, callback func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return ErrAlreadyCapturing
	}

	captureHandlerMu.Lock()
	captureHandler = callback
	captureHandlerMu.Unlock()

	var errStr *C.char
	if C.mavoice_startCapture(C.int(sampleRate), &errStr) != 0 {
		captureHandlerMu.Lock()
		captureHandler = nil
		captureHandlerMu.Unlock()
		if errStr != nil {
			err := errors.New(C.GoString(errStr))
			C.free(unsafe.Pointer(errStr))
			return err
		}
		return errors.New("audio: unknown capture error")
	}

	d.running = true
	return nil
}

func (d *darwinCapture) stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	C.mavoice_stopCapture()
	captureHandlerMu.Lock()
	captureHandler = nil
	captureHandlerMu.Unlock()
	d.running = false
	return nil
}
