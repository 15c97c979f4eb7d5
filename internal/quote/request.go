package quote

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/pool"
)

// SwapRequest prices a trade of Sell for Buy. Amount is the input when
// ExactOutput is false and the desired output otherwise.
type SwapRequest struct {
	Sell        pool.Asset       `json:"sell"`
	Buy         pool.Asset       `json:"buy"`
	ExactOutput bool             `json:"exact_output,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Slippage    *decimal.Decimal `json:"slippage,omitempty"`
}

// DepositRequest prices minting LPTokens. Single selects a one-sided deposit
// of that asset; otherwise both assets are deposited in proportion.
type DepositRequest struct {
	Asset    pool.Asset       `json:"asset"`
	Asset2   pool.Asset       `json:"asset2"`
	Single   *pool.Asset      `json:"single,omitempty"`
	LPTokens decimal.Decimal  `json:"lp_tokens"`
	Slippage *decimal.Decimal `json:"slippage,omitempty"`
}

// WithdrawRequest prices a withdrawal. Without Single, LPTokens are burned
// for both assets. With Single, either LPTokens are burned for that asset or,
// when only Amount is set, the LP tokens needed to take Amount are returned.
type WithdrawRequest struct {
	Asset    pool.Asset       `json:"asset"`
	Asset2   pool.Asset       `json:"asset2"`
	Single   *pool.Asset      `json:"single,omitempty"`
	LPTokens decimal.Decimal  `json:"lp_tokens"`
	Amount   decimal.Decimal  `json:"amount"`
	Slippage *decimal.Decimal `json:"slippage,omitempty"`
}

// Request is one entry of a batch. Exactly one operation must be set.
type Request struct {
	ID       string           `json:"id,omitempty"`
	Swap     *SwapRequest     `json:"swap,omitempty"`
	Deposit  *DepositRequest  `json:"deposit,omitempty"`
	Withdraw *WithdrawRequest `json:"withdraw,omitempty"`
}

func (r Request) operations() int {
	n := 0
	if r.Swap != nil {
		n++
	}
	if r.Deposit != nil {
		n++
	}
	if r.Withdraw != nil {
		n++
	}
	return n
}
