//go:build darwin && cgo

package pointer

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation

#include <ApplicationServices/ApplicationServices.h>
#include <pthread.h>

extern void goPointerEvent(double x, double y, int buttons);

static CFMachPortRef eventTap = NULL;
static CFRunLoopSourceRef runLoopSource = NULL;
static CFRunLoopRef tapRunLoop = NULL;
static volatile int tapButtons = 0;

static CGEventRef pointerCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
    (void)proxy;
    (void)refcon;

    if (type == kCGEventTapDisabledByUserInput || type == kCGEventTapDisabledByTimeout) {
        if (eventTap != NULL) {
            CGEventTapEnable(eventTap, true);
        }
        return event;
    }

    switch (type) {
    case kCGEventLeftMouseDown:  tapButtons |= 1; break;
    case kCGEventLeftMouseUp:    tapButtons &= ~1; break;
    case kCGEventRightMouseDown: tapButtons |= 2; break;
    case kCGEventRightMouseUp:   tapButtons &= ~2; break;
    default: break;
    }

    CGPoint p = CGEventGetLocation(event);
    goPointerEvent(p.x, p.y, tapButtons);
    return event;
}

static void* tapThread(void* arg) {
    (void)arg;
    tapRunLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(tapRunLoop, runLoopSource, kCFRunLoopCommonModes);
    CGEventTapEnable(eventTap, true);
    CFRunLoopRun();
    tapRunLoop = NULL;
    return NULL;
}

static pthread_t tapThreadHandle;

static int startPointerTap(void) {
    CGEventMask mask = CGEventMaskBit(kCGEventMouseMoved) |
                       CGEventMaskBit(kCGEventLeftMouseDragged) |
                       CGEventMaskBit(kCGEventRightMouseDragged) |
                       CGEventMaskBit(kCGEventLeftMouseDown) |
                       CGEventMaskBit(kCGEventLeftMouseUp) |
                       CGEventMaskBit(kCGEventRightMouseDown) |
                       CGEventMaskBit(kCGEventRightMouseUp);

    eventTap = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
                                kCGEventTapOptionListenOnly, mask,
                                pointerCallback, NULL);
    if (eventTap == NULL) {
        return -1;
    }

    runLoopSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, eventTap, 0);
    if (runLoopSource == NULL) {
        CFRelease(eventTap);
        eventTap = NULL;
        return -1;
    }

    if (pthread_create(&tapThreadHandle, NULL, tapThread, NULL) != 0) {
        CFRelease(runLoopSource);
        CFRelease(eventTap);
        runLoopSource = NULL;
        eventTap = NULL;
        return -1;
    }
    return 0;
}

static void stopPointerTap(void) {
    if (eventTap != NULL) {
        CGEventTapEnable(eventTap, false);
    }
    if (tapRunLoop != NULL) {
        CFRunLoopStop(tapRunLoop);
    }
    pthread_join(tapThreadHandle, NULL);
    if (runLoopSource != NULL) {
        CFRelease(runLoopSource);
        runLoopSource = NULL;
    }
    if (eventTap != NULL) {
        CFRelease(eventTap);
        eventTap = NULL;
    }
}

static int accessibilityTrusted(void) {
    return AXIsProcessTrusted() ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"sync"

	"dragwatch/internal/logging"
)

// The event tap callback is a flat C function; it reaches Go through a
// single package-level source, one instance at a time.
var (
	darwinMu     sync.Mutex
	darwinActive *darwinSource
)

//export goPointerEvent
func goPointerEvent(x C.double, y C.double, buttons C.int) {
	darwinMu.Lock()
	s := darwinActive
	darwinMu.Unlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	sink := s.sink
	running := s.running
	s.mu.Unlock()
	if running && sink != nil {
		sink.HandleSample(float64(x), float64(y), ButtonMask(buttons))
	}
}

// darwinSource delivers CGEventTap samples. Requires the Accessibility
// permission.
type darwinSource struct {
	mu      sync.Mutex
	log     *logging.Logger
	sink    Sink
	running bool
}

func newPlatformSource(log *logging.Logger) Source {
	return &darwinSource{log: log}
}

// Available reports whether the process is trusted for event taps.
func (s *darwinSource) Available() (bool, string) {
	if C.accessibilityTrusted() == 0 {
		return false, "Accessibility permission not granted (System Settings > Privacy & Security)"
	}
	return true, "CGEventTap"
}

// Start creates the event tap on its own run loop thread.
func (s *darwinSource) Start(sink Sink) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.sink = sink
	s.running = true
	s.mu.Unlock()

	darwinMu.Lock()
	darwinActive = s
	darwinMu.Unlock()

	if C.startPointerTap() != 0 {
		s.teardown()
		return fmt.Errorf("%w: event tap creation failed (missing Accessibility permission?)", ErrSourceUnavailable)
	}
	s.log.Info("event tap installed")
	return nil
}

// Stop tears down the tap and its run loop thread.
func (s *darwinSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	C.stopPointerTap()
	s.teardown()
	s.log.Info("event tap removed")
	return nil
}

func (s *darwinSource) teardown() {
	darwinMu.Lock()
	if darwinActive == s {
		darwinActive = nil
	}
	darwinMu.Unlock()

	s.mu.Lock()
	s.sink = nil
	s.running = false
	s.mu.Unlock()
}
