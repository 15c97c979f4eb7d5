package amount

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// XRPAmount is an amount of XRP in drops. It marshals to the decimal string
// the ledger uses for native amounts.
type XRPAmount int64

// ParseDrops parses the string form the ledger uses for native amounts.
func ParseDrops(s string) (XRPAmount, error) {
	drops, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid drops %q: %w", s, err)
	}
	return XRPAmount(drops), nil
}

// FromDecimalXRP converts XRP to drops, dropping sub-drop fractions.
func FromDecimalXRP(xrp decimal.Decimal) XRPAmount {
	return XRPAmount(xrp.Shift(NativePrecision).Floor().IntPart())
}

// FromDecimalXRPCeil converts XRP to drops, rounding any sub-drop fraction up.
func FromDecimalXRPCeil(xrp decimal.Decimal) XRPAmount {
	return XRPAmount(xrp.Shift(NativePrecision).Ceil().IntPart())
}

// Decimal returns the amount in XRP.
func (x XRPAmount) Decimal() decimal.Decimal {
	return decimal.New(int64(x), -NativePrecision)
}

func (x XRPAmount) String() string {
	return strconv.FormatInt(int64(x), 10)
}

func (x XRPAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.String())
}

func (x *XRPAmount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("drops must be a string: %w", err)
	}
	drops, err := ParseDrops(s)
	if err != nil {
		return err
	}
	*x = drops
	return nil
}
