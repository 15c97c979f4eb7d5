package amm

import (
	"errors"
	"fmt"
)

// Domain failures. Calculators wrap these with detail; use errors.Is or KindOf
// to classify.
var (
	// ErrInvalidInput covers non-positive or missing numeric arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientLiquidity is returned when a request would drain a reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrCalculationInvalid signals a derived intermediate that came out
	// non-positive. It indicates an upstream invariant violation.
	ErrCalculationInvalid = errors.New("calculation invalid")
	// ErrUnsupportedWeight is returned for pool weights other than 0.5.
	ErrUnsupportedWeight = errors.New("unsupported weight")
)

// ErrorKind is the tag a rejected quote carries to the caller.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindInvalidInput
	KindInsufficientLiquidity
	KindCalculationInvalid
	KindUnsupportedWeight
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return ""
	case KindInvalidInput:
		return "InvalidInput"
	case KindInsufficientLiquidity:
		return "InsufficientLiquidity"
	case KindCalculationInvalid:
		return "CalculationInvalid"
	case KindUnsupportedWeight:
		return "UnsupportedWeight"
	default:
		return "Unknown"
	}
}

// KindOf maps an error returned by this package to its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInsufficientLiquidity):
		return KindInsufficientLiquidity
	case errors.Is(err, ErrCalculationInvalid):
		return KindCalculationInvalid
	case errors.Is(err, ErrUnsupportedWeight):
		return KindUnsupportedWeight
	default:
		return KindUnknown
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

func insufficientf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInsufficientLiquidity}, args...)...)
}

func calculationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCalculationInvalid}, args...)...)
}
