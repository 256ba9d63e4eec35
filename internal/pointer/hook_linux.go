//go:build linux

package pointer

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"dragwatch/internal/logging"
)

// evdev constants.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	relX = 0x00
	relY = 0x01

	btnLeft  = 0x110
	btnRight = 0x111

	synReport = 0
)

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// linuxSource reads /dev/input/event* devices that report relative
// motion. Positions are accumulated from a zero origin: evdev delivers
// deltas, not absolute screen coordinates, and the heuristics downstream
// only care about movement.
type linuxSource struct {
	mu      sync.Mutex
	log     *logging.Logger
	sink    Sink
	running bool
	files   []*os.File
	wg      sync.WaitGroup

	posMu   sync.Mutex
	x, y    float64
	buttons ButtonMask
}

func newPlatformSource(log *logging.Logger) Source {
	return &linuxSource{log: log}
}

// findPointerDevices returns event devices advertising relative axes.
func findPointerDevices() []string {
	var devices []string
	events, _ := filepath.Glob("/sys/class/input/event*")
	for _, ev := range events {
		caps, err := os.ReadFile(filepath.Join(ev, "device/capabilities/rel"))
		if err != nil {
			continue
		}
		// The rel capability bitmap is nonzero for mice and trackpads.
		v, err := strconv.ParseUint(strings.TrimSpace(string(caps)), 16, 64)
		if err != nil || v == 0 {
			continue
		}
		devices = append(devices, "/dev/"+filepath.Base(ev))
	}
	return devices
}

// Available reports whether at least one pointer device is readable.
func (s *linuxSource) Available() (bool, string) {
	devices := findPointerDevices()
	if len(devices) == 0 {
		return false, "no relative-axis input devices found"
	}
	for _, dev := range devices {
		f, err := os.Open(dev)
		if err == nil {
			f.Close()
			return true, fmt.Sprintf("evdev (%d pointer devices)", len(devices))
		}
	}
	return false, "input devices exist but are not readable (join the input group or run as root)"
}

// Start opens every readable pointer device and begins reading events.
func (s *linuxSource) Start(sink Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	var files []*os.File
	for _, dev := range findPointerDevices() {
		f, err := os.Open(dev)
		if err != nil {
			s.log.Debug("skipping input device", "device", dev, "error", err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no readable pointer devices", ErrSourceUnavailable)
	}

	s.sink = sink
	s.running = true
	s.files = files
	for _, f := range files {
		s.wg.Add(1)
		go s.readLoop(f)
	}
	s.log.Info("evdev tracking started", "devices", len(files))
	return nil
}

// Stop closes the devices, which unblocks the readers.
func (s *linuxSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	files := s.files
	s.files = nil
	s.mu.Unlock()

	for _, f := range files {
		f.Close()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.sink = nil
	s.mu.Unlock()
	return nil
}

func (s *linuxSource) readLoop(f *os.File) {
	defer s.wg.Done()

	var ev inputEvent
	moved := false
	for {
		if err := binary.Read(f, binary.LittleEndian, &ev); err != nil {
			s.mu.Lock()
			running := s.running
			sink := s.sink
			s.mu.Unlock()
			if running && sink != nil && err != io.EOF {
				sink.HandleError(fmt.Errorf("read %s: %w", f.Name(), err))
			}
			return
		}

		switch ev.Type {
		case evRel:
			s.posMu.Lock()
			switch ev.Code {
			case relX:
				s.x += float64(ev.Value)
				moved = true
			case relY:
				s.y += float64(ev.Value)
				moved = true
			}
			s.posMu.Unlock()
		case evKey:
			s.posMu.Lock()
			switch ev.Code {
			case btnLeft:
				if ev.Value != 0 {
					s.buttons |= ButtonLeft
				} else {
					s.buttons &^= ButtonLeft
				}
				moved = true
			case btnRight:
				if ev.Value != 0 {
					s.buttons |= ButtonRight
				} else {
					s.buttons &^= ButtonRight
				}
				moved = true
			}
			s.posMu.Unlock()
		case evSyn:
			if ev.Code != synReport || !moved {
				continue
			}
			moved = false

			s.mu.Lock()
			running := s.running
			sink := s.sink
			s.mu.Unlock()
			if !running || sink == nil {
				return
			}

			s.posMu.Lock()
			x, y, buttons := s.x, s.y, s.buttons
			s.posMu.Unlock()
			sink.HandleSample(x, y, buttons)
		}
	}
}
