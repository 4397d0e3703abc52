package entry

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or out-of-order input. Nothing is mutated.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState indicates a transition attempted from a state that forbids it.
	ErrInvalidState = errors.New("invalid entry state")
	// ErrMissingBreakStart indicates an on-break entry without a recorded break start.
	ErrMissingBreakStart = fmt.Errorf("%w: on break without a break start", ErrInvalidState)
)

func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)
}
