package amount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TradingFee is an AMM trading fee in the ledger's native units, where one
// unit is 1/100000 and 1000 units is 1%.
type TradingFee uint16

const (
	// TradingFeeThreshold is the maximum trading fee (1000 = 1%).
	TradingFeeThreshold TradingFee = 1000

	feeUnitsExponent = 5
)

// Rate converts the fee to the fraction the calculators expect.
func (f TradingFee) Rate() decimal.Decimal {
	return decimal.New(int64(f), -feeUnitsExponent)
}

func (f TradingFee) Validate() error {
	if f > TradingFeeThreshold {
		return fmt.Errorf("trading fee %d exceeds maximum %d", f, TradingFeeThreshold)
	}
	return nil
}

// FeeFromRate converts a fractional fee back to ledger units. The rate must be
// an exact multiple of 1/100000 within [0, 0.01].
func FeeFromRate(rate decimal.Decimal) (TradingFee, error) {
	units := rate.Shift(feeUnitsExponent)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("fee rate %s is not a whole number of fee units", rate)
	}
	if units.IsNegative() || units.GreaterThan(decimal.NewFromInt(int64(TradingFeeThreshold))) {
		return 0, fmt.Errorf("fee rate %s out of range [0, 0.01]", rate)
	}
	return TradingFee(units.IntPart()), nil
}
