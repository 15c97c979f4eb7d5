package amm

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

// Params tunes the numerical behavior of a Calculator.
type Params struct {
	// Tolerance is the absolute LP token error at which the single-asset
	// solver stops.
	Tolerance decimal.Decimal
	// MaxIterations caps the bisection loop.
	MaxIterations int
	// BracketMultiplier seeds the upper bound of the bisection bracket.
	BracketMultiplier decimal.Decimal
	// MaxBracketDoublings bounds how often the upper bound may be doubled
	// when the seed does not bracket the root.
	MaxBracketDoublings int
	// WorkPrecision is the scale of intermediate divisions and roots.
	WorkPrecision int32
}

// DefaultParams returns the reference solver settings.
func DefaultParams() Params {
	return Params{
		Tolerance:           DefaultTolerance,
		MaxIterations:       DefaultMaxIterations,
		BracketMultiplier:   DefaultBracketMultiplier,
		MaxBracketDoublings: DefaultMaxBracketDoublings,
		WorkPrecision:       amount.WorkPrecision,
	}
}

func (p Params) Validate() error {
	if !p.Tolerance.IsPositive() {
		return fmt.Errorf("tolerance %s must be positive", p.Tolerance)
	}
	if p.MaxIterations <= 0 {
		return fmt.Errorf("max iterations %d must be positive", p.MaxIterations)
	}
	if p.BracketMultiplier.LessThanOrEqual(amount.One) {
		return fmt.Errorf("bracket multiplier %s must be greater than 1", p.BracketMultiplier)
	}
	if p.MaxBracketDoublings < 0 {
		return fmt.Errorf("max bracket doublings %d must not be negative", p.MaxBracketDoublings)
	}
	if p.WorkPrecision < amount.IssuedPrecision+5 {
		return fmt.Errorf("work precision %d must be at least %d", p.WorkPrecision, amount.IssuedPrecision+5)
	}
	return nil
}

// Calculator prices swaps, deposits and withdrawals against a single
// constant-product pool. It holds no pool state and is safe for concurrent
// use.
type Calculator struct {
	params Params
}

func NewCalculator(params Params) (*Calculator, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calculator params: %w", err)
	}
	return &Calculator{params: params}, nil
}

// Default is the calculator behind the package-level quote functions.
var Default = &Calculator{params: DefaultParams()}

func (c *Calculator) Params() Params {
	return c.params
}

func (c *Calculator) div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		panic("amm: division by a validated non-zero value")
	}
	return a.DivRound(b, c.params.WorkPrecision)
}

func (c *Calculator) sqrt(d decimal.Decimal) decimal.Decimal {
	root, err := amount.Sqrt(d, c.params.WorkPrecision)
	if err != nil {
		panic(fmt.Sprintf("amm: %v", err))
	}
	return root
}

func validateSlippage(slippage decimal.Decimal) error {
	if slippage.IsNegative() {
		return invalidf("slippage %s must not be negative", slippage)
	}
	return nil
}

// QuoteExactInput prices a swap of amountIn using the Default calculator.
func QuoteExactInput(pool SwapPool, amountIn decimal.Decimal) (ExactInputQuote, error) {
	return Default.QuoteExactInput(pool, amountIn)
}

// QuoteExactOutput prices the input needed to receive desiredOutput using the
// Default calculator.
func QuoteExactOutput(pool SwapPool, desiredOutput, slippage decimal.Decimal) (ExactOutputQuote, error) {
	return Default.QuoteExactOutput(pool, desiredOutput, slippage)
}

// QuoteProportionalDeposit prices a balanced deposit using the Default
// calculator.
func QuoteProportionalDeposit(pool DepositPool, desiredLP decimal.Decimal) (ProportionalDeposit, error) {
	return Default.QuoteProportionalDeposit(pool, desiredLP)
}

// QuoteSingleAssetDeposit solves a one-sided deposit using the Default
// calculator.
func QuoteSingleAssetDeposit(pool SingleAssetPool, desiredLP, slippage decimal.Decimal) (SingleAssetDeposit, error) {
	return Default.QuoteSingleAssetDeposit(pool, desiredLP, slippage)
}
