package analyzer

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one.
var (
	ErrMissingColumn    = errors.New("missing column")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrEmptySeries      = errors.New("empty series")
	ErrComputation      = errors.New("computation error")
)

// Error is an analysis failure tagged with its kind
type Error struct {
	Op     string
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds an analysis error of the given kind
func NewError(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns a stable name for the error kind, or "" if err is not an
// analysis error
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrEmptySeries):
		return "empty_series"
	case errors.Is(err, ErrComputation):
		return "computation"
	default:
		return ""
	}
}
