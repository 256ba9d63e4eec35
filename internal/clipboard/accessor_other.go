//go:build !windows && !linux && !darwin

package clipboard

import "errors"

var errUnsupported = errors.New("no clipboard accessor for this platform")

type unsupportedAccessor struct{}

func newPlatformAccessor() Accessor {
	return &unsupportedAccessor{}
}

func (unsupportedAccessor) Formats() ([]string, error)      { return nil, errUnsupported }
func (unsupportedAccessor) ReadFileURLs() ([]string, error) { return nil, errUnsupported }
func (unsupportedAccessor) ReadText() (string, error)       { return "", errUnsupported }
func (unsupportedAccessor) ReadMarkup() (string, error)     { return "", errUnsupported }
