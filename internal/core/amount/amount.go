// Package amount is the decimal substrate shared by every AMM calculation.
//
// Quantities are shopspring decimals end to end. Intermediate divisions run at
// WorkPrecision digits and rounding to a ledger precision happens once, when a
// value leaves the calculator.
package amount

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// NativePrecision is the number of fractional digits XRP can carry (drops).
	NativePrecision int32 = 6
	// IssuedPrecision is the number of fractional digits kept for issued
	// currencies and LP tokens.
	IssuedPrecision int32 = 15
	// WorkPrecision is the scale used for intermediate divisions.
	WorkPrecision int32 = 40

	sqrtMaxIterations = 256
)

var (
	One = decimal.NewFromInt(1)
	Two = decimal.NewFromInt(2)

	// ErrNotANumber is returned by Parse for empty or malformed input.
	ErrNotANumber = errors.New("not a decimal number")
)

// Kind tells the rounding layer which ledger precision applies to a value.
type Kind uint8

const (
	Issued Kind = iota
	Native
)

// Precision returns the number of fractional digits for the kind.
func (k Kind) Precision() int32 {
	if k == Native {
		return NativePrecision
	}
	return IssuedPrecision
}

func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Issued:
		return "issued"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Parse reads a decimal from user or wire input.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty string", ErrNotANumber)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return d, nil
}

// RoundUp rounds towards positive infinity. Used for anything the user must
// send so that rounding never under-funds a transaction.
func RoundUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundCeil(places)
}

// RoundDown rounds towards negative infinity. Used for amounts the user is
// promised to receive.
func RoundDown(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundFloor(places)
}

// RoundBank rounds half to even. Used for estimates and prices.
func RoundBank(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundBank(places)
}

// Sqrt returns the square root of d to the given number of fractional digits
// using Newton iteration. The float64 square root only seeds the iteration.
func Sqrt(d decimal.Decimal, places int32) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("sqrt of negative value %s", d)
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}

	guess := seed(d)
	scale := places + 4
	epsilon := decimal.New(1, -scale)

	for i := 0; i < sqrtMaxIterations; i++ {
		next := guess.Add(d.DivRound(guess, scale)).DivRound(Two, scale)
		if next.Sub(guess).Abs().LessThanOrEqual(epsilon) {
			return next.Round(places), nil
		}
		guess = next
	}
	return guess.Round(places), nil
}

func seed(d decimal.Decimal) decimal.Decimal {
	f := math.Sqrt(d.InexactFloat64())
	if f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return decimal.NewFromFloat(f)
	}
	// outside float64 range: 10^(magnitude/2) is close enough for Newton
	magnitude := int32(d.NumDigits()) + d.Exponent()
	return decimal.New(1, magnitude/2)
}
