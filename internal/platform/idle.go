package platform

import (
	"errors"
	"time"
)

// ErrIdleUnsupported indicates the host cannot report user idle time.
var ErrIdleUnsupported = errors.New("idle time unsupported")

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewIdleProvider returns the provider for the current OS.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}

type unsupportedIdleProvider struct{}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, ErrIdleUnsupported
}
