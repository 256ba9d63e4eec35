//go:build darwin && !cgo

package pointer

import "dragwatch/internal/logging"

// unavailableSource is the stub when CGO is off; CGEventTap needs cgo.
type unavailableSource struct {
	log *logging.Logger
}

func newPlatformSource(log *logging.Logger) Source {
	return &unavailableSource{log: log}
}

func (s *unavailableSource) Available() (bool, string) {
	return false, "macOS pointer tracking requires CGO (rebuild with CGO_ENABLED=1)"
}

func (s *unavailableSource) Start(sink Sink) error {
	return ErrSourceUnavailable
}

func (s *unavailableSource) Stop() error {
	return nil
}
