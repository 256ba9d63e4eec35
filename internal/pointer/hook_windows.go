//go:build windows

package pointer

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"dragwatch/internal/logging"
)

// Win32 constants for the low-level mouse hook.
const (
	whMouseLL = 14

	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmQuit        = 0x0012
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

type point struct {
	X int32
	Y int32
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	HWnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

// Windows hooks dispatch through a flat callback with no closure
// argument, so the running source is held in a package global, exactly
// one instance at a time.
var (
	hookMu       sync.Mutex
	activeSource *windowsSource
)

// windowsSource delivers WH_MOUSE_LL events from a dedicated message
// pump thread.
type windowsSource struct {
	mu       sync.Mutex
	log      *logging.Logger
	sink     Sink
	running  bool
	hook     windows.Handle
	threadID uint32
	buttons  ButtonMask
	started  chan error
	done     chan struct{}
}

func newPlatformSource(log *logging.Logger) Source {
	return &windowsSource{log: log}
}

// Available reports whether the hook can be installed.
func (s *windowsSource) Available() (bool, string) {
	return true, "Win32 low-level mouse hook"
}

// Start installs the hook on a locked OS thread and pumps messages.
func (s *windowsSource) Start(sink Sink) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.sink = sink
	s.running = true
	s.started = make(chan error, 1)
	s.done = make(chan struct{})
	s.mu.Unlock()

	hookMu.Lock()
	activeSource = s
	hookMu.Unlock()

	go s.pump()

	if err := <-s.started; err != nil {
		s.teardown()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return nil
}

// Stop posts WM_QUIT to the pump thread and waits for it to unhook.
func (s *windowsSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	threadID := s.threadID
	done := s.done
	s.mu.Unlock()

	if threadID != 0 {
		procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	}
	<-done
	s.teardown()
	return nil
}

func (s *windowsSource) teardown() {
	hookMu.Lock()
	if activeSource == s {
		activeSource = nil
	}
	hookMu.Unlock()

	s.mu.Lock()
	s.sink = nil
	s.running = false
	s.threadID = 0
	s.mu.Unlock()
}

// pump runs the hook's message loop. The hook lives and dies with this
// thread, so it stays OS-locked for its whole life.
func (s *windowsSource) pump() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	s.mu.Lock()
	s.threadID = windows.GetCurrentThreadId()
	s.mu.Unlock()

	hook, _, callErr := procSetWindowsHookExW.Call(
		uintptr(whMouseLL),
		windows.NewCallback(lowLevelMouseProc),
		0,
		0,
	)
	if hook == 0 {
		s.started <- fmt.Errorf("SetWindowsHookExW: %v", callErr)
		return
	}

	s.mu.Lock()
	s.hook = windows.Handle(hook)
	s.mu.Unlock()
	s.started <- nil
	s.log.Info("mouse hook installed")

	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// GetMessage returns 0 on WM_QUIT, -1 on error.
		if int32(ret) <= 0 {
			break
		}
	}

	procUnhookWindowsHookEx.Call(hook)
	s.mu.Lock()
	s.hook = 0
	s.mu.Unlock()
	s.log.Info("mouse hook removed")
}

// lowLevelMouseProc is the WH_MOUSE_LL callback shared by all events.
func lowLevelMouseProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		hookMu.Lock()
		s := activeSource
		hookMu.Unlock()
		if s != nil {
			s.handleHookEvent(wParam, (*msllHookStruct)(unsafe.Pointer(lParam)))
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (s *windowsSource) handleHookEvent(wParam uintptr, data *msllHookStruct) {
	s.mu.Lock()
	if !s.running || s.sink == nil {
		s.mu.Unlock()
		return
	}
	switch wParam {
	case wmLButtonDown:
		s.buttons |= ButtonLeft
	case wmLButtonUp:
		s.buttons &^= ButtonLeft
	case wmRButtonDown:
		s.buttons |= ButtonRight
	case wmRButtonUp:
		s.buttons &^= ButtonRight
	}
	sink := s.sink
	buttons := s.buttons
	s.mu.Unlock()

	sink.HandleSample(float64(data.Pt.X), float64(data.Pt.Y), buttons)
}
