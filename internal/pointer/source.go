package pointer

import (
	"errors"
	"sync"
)

// Sink receives raw events from a Source. The Tracker implements Sink.
type Sink interface {
	// HandleSample ingests one raw pointer position. Non-finite
	// coordinates are dropped by the receiver, not the caller.
	HandleSample(x, y float64, buttons ButtonMask)

	// HandleError forwards a tracking-layer failure. Never fatal.
	HandleError(err error)
}

// Source is the native hook bridge contract. A Source must only call the
// sink between Start returning and Stop returning, and must stop calling
// back within a bounded time after Stop.
type Source interface {
	// Start installs the platform hook and begins delivering events to
	// the sink.
	Start(sink Sink) error

	// Stop tears the hook down. Idempotent.
	Stop() error

	// Available reports whether this source can run on the current
	// platform with current permissions, with a human-readable reason.
	Available() (bool, string)
}

// ErrSourceUnavailable is returned by Start when the platform hook
// cannot be installed here.
var ErrSourceUnavailable = errors.New("pointer source not available on this platform")

// SimulatedSource is a Source that delivers only what the test or host
// injects. It backs development on platforms without a usable hook and
// every tracker test.
type SimulatedSource struct {
	mu      sync.Mutex
	sink    Sink
	running bool
}

// NewSimulatedSource creates a SimulatedSource.
func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{}
}

// Start begins accepting injected events.
func (s *SimulatedSource) Start(sink Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
	s.running = true
	return nil
}

// Stop stops delivery. Events injected afterwards are discarded.
func (s *SimulatedSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.sink = nil
	return nil
}

// Available always reports true.
func (s *SimulatedSource) Available() (bool, string) {
	return true, "simulated source (for testing)"
}

// Emit injects a pointer event as if the native hook delivered it.
func (s *SimulatedSource) Emit(x, y float64, buttons ButtonMask) {
	s.mu.Lock()
	sink := s.sink
	running := s.running
	s.mu.Unlock()
	if running && sink != nil {
		sink.HandleSample(x, y, buttons)
	}
}

// EmitError injects a tracking-layer failure.
func (s *SimulatedSource) EmitError(err error) {
	s.mu.Lock()
	sink := s.sink
	running := s.running
	s.mu.Unlock()
	if running && sink != nil {
		sink.HandleError(err)
	}
}
