//go:build darwin && !cgo

package clipboard

import "errors"

var errNoCgo = errors.New("pasteboard access requires CGO (rebuild with CGO_ENABLED=1)")

type unavailableAccessor struct{}

func newPlatformAccessor() Accessor {
	return &unavailableAccessor{}
}

func (unavailableAccessor) Formats() ([]string, error)      { return nil, errNoCgo }
func (unavailableAccessor) ReadFileURLs() ([]string, error) { return nil, errNoCgo }
func (unavailableAccessor) ReadText() (string, error)       { return "", errNoCgo }
func (unavailableAccessor) ReadMarkup() (string, error)     { return "", errNoCgo }
