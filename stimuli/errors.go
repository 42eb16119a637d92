/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every startup validation failure.
	ErrInvalidConfig = errors.New("invalid stimulus configuration")

	// ErrUnsatisfiable is matched by *UnsatisfiableError.
	ErrUnsatisfiable = errors.New("constraints not satisfied")

	// ErrPoolTooSmall is returned when a distractor set cannot supply the
	// objects an occlusion policy asks for.
	ErrPoolTooSmall = errors.New("occlusion pool too small")
)

// UnsatisfiableError reports a rejection-sampling loop that gave up.
type UnsatisfiableError struct {
	Stage    string
	Attempts int
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("%s: no valid sample after %d attempts", e.Stage, e.Attempts)
}

func (e *UnsatisfiableError) Is(target error) bool {
	return target == ErrUnsatisfiable
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
