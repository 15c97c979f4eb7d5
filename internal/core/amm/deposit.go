package amm

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

// QuoteDeposit routes a deposit request to the proportional or single-asset
// calculator.
func (c *Calculator) QuoteDeposit(pool DepositPool, req DepositRequest) (DepositQuote, error) {
	if req.Asset == Both {
		deposit, err := c.QuoteProportionalDeposit(pool, req.DesiredLPTokens)
		if err != nil {
			return DepositQuote{}, err
		}
		return DepositQuote{Asset: Both, Proportional: &deposit}, nil
	}

	side, err := pool.Side(req.Asset)
	if err != nil {
		return DepositQuote{}, err
	}
	deposit, err := c.QuoteSingleAssetDeposit(side, req.DesiredLPTokens, req.Slippage)
	if err != nil {
		return DepositQuote{}, err
	}
	return DepositQuote{Asset: req.Asset, Single: &deposit}, nil
}

// QuoteProportionalDeposit returns the asset pair that mints desiredLP while
// keeping the pool ratio. Balanced deposits do not move the price so no fee
// applies. Each amount is rounded up to its asset precision.
func (c *Calculator) QuoteProportionalDeposit(pool DepositPool, desiredLP decimal.Decimal) (ProportionalDeposit, error) {
	if err := pool.validate(); err != nil {
		return ProportionalDeposit{}, err
	}
	if !desiredLP.IsPositive() {
		return ProportionalDeposit{}, invalidf("desiredLpTokens %s must be positive", desiredLP)
	}

	amountA := c.div(desiredLP.Mul(pool.ReserveA), pool.LPTokenSupply)
	amountB := c.div(desiredLP.Mul(pool.ReserveB), pool.LPTokenSupply)

	return ProportionalDeposit{
		AmountA: amount.RoundUp(amountA, pool.KindA.Precision()),
		AmountB: amount.RoundUp(amountB, pool.KindB.Precision()),
	}, nil
}

// LPTokensOut evaluates the single-asset mint formula
//
//	L = T * (sqrt(1 + (B - F*(1-W)*B) / P) - 1)
//
// for a deposit of B into the side with reserve P.
func (c *Calculator) LPTokensOut(pool SingleAssetPool, deposit decimal.Decimal) (decimal.Decimal, error) {
	if err := pool.validate(); err != nil {
		return decimal.Zero, err
	}
	if deposit.IsNegative() {
		return decimal.Zero, invalidf("deposit %s must not be negative", deposit)
	}
	return c.lpTokensOut(pool, deposit), nil
}

func (c *Calculator) lpTokensOut(pool SingleAssetPool, deposit decimal.Decimal) decimal.Decimal {
	effective := deposit.Mul(pool.feeMultiplier())
	root := c.sqrt(amount.One.Add(c.div(effective, pool.Reserve)))
	return pool.LPTokenSupply.Mul(root.Sub(amount.One))
}

// QuoteSingleAssetDeposit finds the amount of one asset that mints desiredLP.
//
// The mint formula has no usable inverse under the ledger's rounding, so the
// deposit is solved by bisection. The result is rounded up: depositing less
// would mint fewer tokens than requested.
func (c *Calculator) QuoteSingleAssetDeposit(pool SingleAssetPool, desiredLP, slippage decimal.Decimal) (SingleAssetDeposit, error) {
	if err := pool.validate(); err != nil {
		return SingleAssetDeposit{}, err
	}
	if !desiredLP.IsPositive() {
		return SingleAssetDeposit{}, invalidf("desiredLpTokens %s must be positive", desiredLP)
	}
	if err := validateSlippage(slippage); err != nil {
		return SingleAssetDeposit{}, err
	}

	solved, iterations, err := c.solveDeposit(pool, desiredLP)
	if err != nil {
		return SingleAssetDeposit{}, err
	}

	precision := pool.Kind.Precision()
	exact := amount.RoundUp(solved, precision)
	return SingleAssetDeposit{
		ExactAmount:           exact,
		MaxAmountWithSlippage: amount.RoundUp(exact.Mul(amount.One.Add(slippage)), precision),
		Solved:                solved,
		Iterations:            iterations,
	}, nil
}

// solveDeposit bisects [0, high] for the deposit minting target LP tokens.
// The mint formula is monotonically increasing in the deposit, and high
// always mints at least target, so the returned root never under-mints.
// Below one LP token the tolerance is relative to target.
func (c *Calculator) solveDeposit(pool SingleAssetPool, target decimal.Decimal) (decimal.Decimal, int, error) {
	low := decimal.Zero
	high := c.div(pool.Reserve.Mul(target), pool.LPTokenSupply).Mul(c.params.BracketMultiplier)

	bracketed := false
	for i := 0; i <= c.params.MaxBracketDoublings; i++ {
		if c.lpTokensOut(pool, high).GreaterThanOrEqual(target) {
			bracketed = true
			break
		}
		low = high
		high = high.Mul(amount.Two)
	}
	if !bracketed {
		return decimal.Zero, 0, calculationf("no deposit up to %s mints %s LP tokens", high, target)
	}

	tolerance := c.params.Tolerance
	if target.LessThan(amount.One) {
		tolerance = tolerance.Mul(target)
	}
	// one unit of the deposited asset
	unit := decimal.New(1, -pool.Kind.Precision())

	iterations := 0
	for iterations < c.params.MaxIterations && high.Sub(low).GreaterThan(unit) {
		iterations++
		mid := low.Add(high).Mul(half).Round(c.params.WorkPrecision)
		diff := c.lpTokensOut(pool, mid).Sub(target)
		if diff.IsNegative() {
			low = mid
			continue
		}
		high = mid
		if diff.LessThanOrEqual(tolerance) {
			break
		}
	}
	return high, iterations, nil
}
