package amm

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

// Solver defaults matching the ledger's reference client behavior.
const (
	DefaultMaxIterations       = 100
	DefaultMaxBracketDoublings = 64
)

var (
	// EqualWeight is the only pool weight the ledger supports.
	EqualWeight = decimal.New(5, -1)

	// DefaultTolerance is the absolute LP token tolerance of the
	// single-asset deposit solver.
	DefaultTolerance = decimal.New(1, -8)

	// DefaultBracketMultiplier seeds the solver's upper bound as
	// reserve * (desiredLP / supply) * multiplier.
	DefaultBracketMultiplier = decimal.NewFromInt(10)

	// MaxPoolFeeRate is the largest trading fee a pool can charge (1%).
	MaxPoolFeeRate = amount.TradingFeeThreshold.Rate()

	half = decimal.New(5, -1)
)
