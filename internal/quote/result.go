package quote

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amm"
	"github.com/LeJamon/ammquote/internal/core/amount"
	"github.com/LeJamon/ammquote/internal/pool"
)

// Result is the tagged outcome of one quote. A rejected quote has Success
// false, the failure kind in Error and no quote fields.
type Result struct {
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	Pool       *pool.Snapshot    `json:"pool,omitempty"`
	Swap       *SwapQuote        `json:"swap,omitempty"`
	Deposit    *amm.DepositQuote `json:"deposit,omitempty"`
	Withdrawal *WithdrawalQuote  `json:"withdrawal,omitempty"`

	Drops *Drops `json:"drops,omitempty"`
}

type SwapQuote struct {
	Sell        pool.Asset            `json:"sell"`
	Buy         pool.Asset            `json:"buy"`
	SpotPrice   decimal.Decimal       `json:"spot_price"`
	ExactInput  *amm.ExactInputQuote  `json:"exact_input,omitempty"`
	ExactOutput *amm.ExactOutputQuote `json:"exact_output,omitempty"`
}

type WithdrawalQuote struct {
	Proportional *amm.ProportionalWithdrawal `json:"proportional,omitempty"`
	Single       *amm.SingleAssetWithdrawal  `json:"single,omitempty"`
	Cost         *amm.WithdrawalCost         `json:"cost,omitempty"`
}

// Drops holds the XRP legs of a quote in whole drops, the form a transaction
// carries. SendMax rounds up and DeliverMin rounds down so neither bound is
// looser than the quote.
type Drops struct {
	SendMax    *amount.XRPAmount `json:"send_max,omitempty"`
	DeliverMin *amount.XRPAmount `json:"deliver_min,omitempty"`
}

func (d *Drops) empty() bool {
	return d.SendMax == nil && d.DeliverMin == nil
}

func sendMax(asset pool.Asset, xrp decimal.Decimal) *amount.XRPAmount {
	if !asset.IsNative() {
		return nil
	}
	drops := amount.FromDecimalXRPCeil(xrp)
	return &drops
}

func deliverMin(asset pool.Asset, xrp decimal.Decimal) *amount.XRPAmount {
	if !asset.IsNative() {
		return nil
	}
	drops := amount.FromDecimalXRP(xrp)
	return &drops
}

// withDrops attaches d to res unless it has no XRP leg.
func withDrops(res Result, d Drops) Result {
	if !d.empty() {
		res.Drops = &d
	}
	return res
}
