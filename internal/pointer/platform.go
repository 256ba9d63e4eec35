package pointer

import "dragwatch/internal/logging"

// NewHookSource returns the native pointer hook source for the current
// platform. Callers should consult Available before Start; on platforms
// without a usable hook the returned source fails Start with
// ErrSourceUnavailable.
func NewHookSource(log *logging.Logger) Source {
	return newPlatformSource(log.WithComponent("hook"))
}
