//go:build darwin

package inject

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics
#include <stdlib.h>
#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>

static void mavoiceSetClipboard(const char *text) {
    NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
    [pasteboard clearContents];
    [pasteboard setString:[NSString stringWithUTF8String:text] forType:NSPasteboardTypeString];
}

static void mavoicePostPaste(void) {
    CGEventSourceRef src = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
    CGEventRef vDown = CGEventCreateKeyboardEvent(src, (CGKeyCode)9, true);
    CGEventSetFlags(vDown, kCGEventFlagMaskCommand);
    CGEventRef vUp = CGEventCreateKeyboardEvent(src, (CGKeyCode)9, false);
    CGEventSetFlags(vUp, kCGEventFlagMaskCommand);
    CGEventPost(kCGHIDEventTap, vDown);
    CGEventPost(kCGHIDEventTap, vUp);
    CFRelease(vDown);
    CFRelease(vUp);
    CFRelease(src);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

var mu sync.Mutex

type darwinInjector struct{}

func newInjector() (Injector, error) {
	return &darwinInjector{}, nil
}

// Inject writes text to the system pasteboard and posts a synthetic Cmd+V.
// target is currently unused on darwin: pasting always targets the frontmost
// application's active field, which is what a TargetHint would resolve to
// in the common case of injecting immediately after capturing focus.
func (d *darwinInjector) Inject(text string, target TargetHint) error {
	mu.Lock()
	defer mu.Unlock()
	cstr := C.CString(text)
	defer C.free(unsafe.Pointer(cstr))
	C.mavoiceSetClipboard(cstr)
	C.mavoicePostPaste()
	return nil
}
