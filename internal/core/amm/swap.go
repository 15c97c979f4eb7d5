package amm

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

// QuoteExactInput returns what the pool pays for amountIn.
//
// The invariant reserveIn*reserveOut is applied first and the fee is then
// taken from the gross output: net = gross * (1 - feeRate).
func (c *Calculator) QuoteExactInput(pool SwapPool, amountIn decimal.Decimal) (ExactInputQuote, error) {
	if err := pool.validate(); err != nil {
		return ExactInputQuote{}, err
	}
	if !amountIn.IsPositive() {
		return ExactInputQuote{}, invalidf("amountIn %s must be positive", amountIn)
	}

	k := pool.ReserveIn.Mul(pool.ReserveOut)
	newReserveIn := pool.ReserveIn.Add(amountIn)
	newReserveOut := c.div(k, newReserveIn)
	gross := pool.ReserveOut.Sub(newReserveOut)
	net := gross.Mul(amount.One.Sub(pool.FeeRate))

	outPrecision := pool.Out.Precision()
	quote := ExactInputQuote{
		AmountIn:        amountIn,
		EstimatedOutput: amount.RoundBank(net, outPrecision),
		NewReserveIn:    amount.RoundBank(newReserveIn, pool.In.Precision()),
		NewReserveOut:   amount.RoundBank(newReserveOut, outPrecision),
		PricePerUnit:    decimal.Zero,
	}
	if net.IsPositive() {
		quote.PricePerUnit = amount.RoundBank(c.div(amountIn, net), amount.IssuedPrecision)
	}
	return quote, nil
}

// QuoteExactOutput returns the input required to receive desiredOutput and a
// slippage-inflated ceiling the user should authorize.
//
// Here the fee is modeled on the input side: the pool must release
// desiredOutput/(1-feeRate) for the user to net desiredOutput. The two quote
// directions are therefore not exact inverses when feeRate > 0.
func (c *Calculator) QuoteExactOutput(pool SwapPool, desiredOutput, slippage decimal.Decimal) (ExactOutputQuote, error) {
	if err := pool.validate(); err != nil {
		return ExactOutputQuote{}, err
	}
	if !desiredOutput.IsPositive() {
		return ExactOutputQuote{}, invalidf("desiredOutput %s must be positive", desiredOutput)
	}
	if err := validateSlippage(slippage); err != nil {
		return ExactOutputQuote{}, err
	}
	if desiredOutput.GreaterThanOrEqual(pool.ReserveOut) {
		return ExactOutputQuote{}, insufficientf("desiredOutput %s >= reserveOut %s", desiredOutput, pool.ReserveOut)
	}

	adjusted := c.div(desiredOutput, amount.One.Sub(pool.FeeRate))
	if adjusted.GreaterThanOrEqual(pool.ReserveOut) {
		return ExactOutputQuote{}, insufficientf("fee-adjusted output %s >= reserveOut %s", adjusted, pool.ReserveOut)
	}

	k := pool.ReserveIn.Mul(pool.ReserveOut)
	newReserveOut := pool.ReserveOut.Sub(adjusted)
	newReserveIn := c.div(k, newReserveOut)
	exactInput := newReserveIn.Sub(pool.ReserveIn)
	if !exactInput.IsPositive() {
		return ExactOutputQuote{}, calculationf("exact input %s is not positive", exactInput)
	}

	inPrecision := pool.In.Precision()
	exact := amount.RoundUp(exactInput, inPrecision)
	withSlippage := amount.RoundUp(exactInput.Mul(amount.One.Add(slippage)), inPrecision)

	return ExactOutputQuote{
		DesiredOutput:     desiredOutput,
		ExactInput:        exact,
		InputWithSlippage: withSlippage,
		SlippageAmount:    withSlippage.Sub(exact),
		PricePerUnit:      amount.RoundBank(c.div(exactInput, desiredOutput), amount.IssuedPrecision),
	}, nil
}

// SpotPrice is the marginal amount of the input asset paid per unit of output
// for an infinitesimal exact-input swap.
func (c *Calculator) SpotPrice(pool SwapPool) (decimal.Decimal, error) {
	if err := pool.validate(); err != nil {
		return decimal.Zero, err
	}
	effectiveOut := pool.ReserveOut.Mul(amount.One.Sub(pool.FeeRate))
	return amount.RoundBank(c.div(pool.ReserveIn, effectiveOut), amount.IssuedPrecision), nil
}
