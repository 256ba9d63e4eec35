//go:build !windows && !linux && !darwin

package pointer

import "dragwatch/internal/logging"

type unsupportedSource struct {
	log *logging.Logger
}

func newPlatformSource(log *logging.Logger) Source {
	return &unsupportedSource{log: log}
}

func (s *unsupportedSource) Available() (bool, string) {
	return false, "no pointer hook implementation for this platform"
}

func (s *unsupportedSource) Start(sink Sink) error {
	return ErrSourceUnavailable
}

func (s *unsupportedSource) Stop() error {
	return nil
}
