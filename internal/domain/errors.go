package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of every error caused by bad caller input.
var ErrValidation = errors.New("validation failed")

var (
	ErrEmptyKeyword    = fmt.Errorf("%w: keyword is empty", ErrValidation)
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrValidation)
	ErrInvalidSource   = fmt.Errorf("%w: invalid source definition", ErrValidation)
)

// IndexError reports an out-of-range index for a list of the given length.
func IndexError(index, length int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, length)
}

// ConnectorError isolates a failed poll to one source.
type ConnectorError struct {
	Source string
	Err    error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("connector %s: %v", e.Source, e.Err)
}

func (e *ConnectorError) Unwrap() error {
	return e.Err
}
