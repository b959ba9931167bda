package model

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable matches any UpstreamUnavailableError via errors.Is.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// UpstreamUnavailableError reports a failure of the market-data feed or of the
// persistence layer. The cause is kept unmodified.
type UpstreamUnavailableError struct {
	Source string
	Err    error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

func (e *UpstreamUnavailableError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// Upstream wraps err as an UpstreamUnavailableError, or returns nil.
func Upstream(source string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamUnavailableError{Source: source, Err: err}
}
