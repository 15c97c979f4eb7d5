package amm

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

func validateWithdrawSlippage(slippage decimal.Decimal) error {
	if slippage.IsNegative() || slippage.GreaterThanOrEqual(amount.One) {
		return invalidf("slippage %s must be in [0, 1)", slippage)
	}
	return nil
}

// minWithSlippage is the floor a withdrawal should still accept.
func minWithSlippage(d, slippage decimal.Decimal, precision int32) decimal.Decimal {
	return amount.RoundDown(d.Mul(amount.One.Sub(slippage)), precision)
}

// QuoteProportionalWithdraw returns both assets released by burning
// lpTokensIn. Amounts are rounded down since the user receives them.
func (c *Calculator) QuoteProportionalWithdraw(pool DepositPool, lpTokensIn, slippage decimal.Decimal) (ProportionalWithdrawal, error) {
	if err := pool.validate(); err != nil {
		return ProportionalWithdrawal{}, err
	}
	if !lpTokensIn.IsPositive() {
		return ProportionalWithdrawal{}, invalidf("lpTokensIn %s must be positive", lpTokensIn)
	}
	if err := validateWithdrawSlippage(slippage); err != nil {
		return ProportionalWithdrawal{}, err
	}
	if lpTokensIn.GreaterThan(pool.LPTokenSupply) {
		return ProportionalWithdrawal{}, insufficientf("lpTokensIn %s > lpTokenSupply %s", lpTokensIn, pool.LPTokenSupply)
	}

	precA, precB := pool.KindA.Precision(), pool.KindB.Precision()
	amountA := amount.RoundDown(c.div(lpTokensIn.Mul(pool.ReserveA), pool.LPTokenSupply), precA)
	amountB := amount.RoundDown(c.div(lpTokensIn.Mul(pool.ReserveB), pool.LPTokenSupply), precB)

	return ProportionalWithdrawal{
		LPTokensIn: lpTokensIn,
		AmountA:    amountA,
		AmountB:    amountB,
		MinAmountA: minWithSlippage(amountA, slippage, precA),
		MinAmountB: minWithSlippage(amountB, slippage, precB),
	}, nil
}

// QuoteSingleAssetWithdraw returns the amount of one asset released by
// burning lpTokensIn:
//
//	a = P * (1 - (1 - t/T)^2) * (1 - F*(1-W))
func (c *Calculator) QuoteSingleAssetWithdraw(pool SingleAssetPool, lpTokensIn, slippage decimal.Decimal) (SingleAssetWithdrawal, error) {
	if err := pool.validate(); err != nil {
		return SingleAssetWithdrawal{}, err
	}
	if !lpTokensIn.IsPositive() {
		return SingleAssetWithdrawal{}, invalidf("lpTokensIn %s must be positive", lpTokensIn)
	}
	if err := validateWithdrawSlippage(slippage); err != nil {
		return SingleAssetWithdrawal{}, err
	}
	// burning the whole supply for one asset would strand the other reserve
	if lpTokensIn.GreaterThanOrEqual(pool.LPTokenSupply) {
		return SingleAssetWithdrawal{}, insufficientf("lpTokensIn %s >= lpTokenSupply %s", lpTokensIn, pool.LPTokenSupply)
	}

	remaining := amount.One.Sub(c.div(lpTokensIn, pool.LPTokenSupply))
	share := amount.One.Sub(remaining.Mul(remaining))
	out := pool.Reserve.Mul(share).Mul(pool.feeMultiplier())

	precision := pool.Kind.Precision()
	got := amount.RoundDown(out, precision)
	return SingleAssetWithdrawal{
		LPTokensIn: lpTokensIn,
		Amount:     got,
		MinAmount:  minWithSlippage(got, slippage, precision),
	}, nil
}

// LPTokensForWithdrawal returns the LP tokens to burn to take amountOut of one
// asset, the closed-form inverse of QuoteSingleAssetWithdraw:
//
//	t = T * (1 - sqrt(1 - a / (P * (1 - F*(1-W)))))
func (c *Calculator) LPTokensForWithdrawal(pool SingleAssetPool, amountOut, slippage decimal.Decimal) (WithdrawalCost, error) {
	if err := pool.validate(); err != nil {
		return WithdrawalCost{}, err
	}
	if !amountOut.IsPositive() {
		return WithdrawalCost{}, invalidf("amountOut %s must be positive", amountOut)
	}
	if err := validateSlippage(slippage); err != nil {
		return WithdrawalCost{}, err
	}

	available := pool.Reserve.Mul(pool.feeMultiplier())
	if amountOut.GreaterThanOrEqual(available) {
		return WithdrawalCost{}, insufficientf("amountOut %s >= withdrawable %s", amountOut, available)
	}

	root := c.sqrt(amount.One.Sub(c.div(amountOut, available)))
	tokens := pool.LPTokenSupply.Mul(amount.One.Sub(root))
	if !tokens.IsPositive() {
		return WithdrawalCost{}, calculationf("lp tokens %s is not positive", tokens)
	}

	lp := amount.RoundUp(tokens, amount.IssuedPrecision)
	return WithdrawalCost{
		Amount:                  amountOut,
		LPTokensIn:              lp,
		MaxLPTokensWithSlippage: amount.RoundUp(lp.Mul(amount.One.Add(slippage)), amount.IssuedPrecision),
	}, nil
}
