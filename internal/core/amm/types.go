package amm

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

// SwapPool is the pool state a swap quote needs, oriented from the asset the
// user sends (In) to the asset the user receives (Out).
type SwapPool struct {
	ReserveIn  decimal.Decimal
	ReserveOut decimal.Decimal
	// FeeRate is a fraction, e.g. 0.003 for 0.3%.
	FeeRate decimal.Decimal
	In      amount.Kind
	Out     amount.Kind
}

func (p SwapPool) validate() error {
	if !p.ReserveIn.IsPositive() {
		return invalidf("reserveIn %s must be positive", p.ReserveIn)
	}
	if !p.ReserveOut.IsPositive() {
		return invalidf("reserveOut %s must be positive", p.ReserveOut)
	}
	if p.FeeRate.IsNegative() || p.FeeRate.GreaterThanOrEqual(amount.One) {
		return invalidf("feeRate %s must be in [0, 1)", p.FeeRate)
	}
	return nil
}

// ExactInputQuote prices a swap pinned by the amount sent.
type ExactInputQuote struct {
	AmountIn        decimal.Decimal `json:"amount_in"`
	EstimatedOutput decimal.Decimal `json:"estimated_output"`
	NewReserveIn    decimal.Decimal `json:"new_reserve_in"`
	NewReserveOut   decimal.Decimal `json:"new_reserve_out"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
}

// ExactOutputQuote prices a swap pinned by the amount received.
type ExactOutputQuote struct {
	DesiredOutput     decimal.Decimal `json:"desired_output"`
	ExactInput        decimal.Decimal `json:"exact_input"`
	InputWithSlippage decimal.Decimal `json:"input_with_slippage"`
	SlippageAmount    decimal.Decimal `json:"slippage_amount"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
}

// DepositPool is a two-asset pool snapshot used for deposits and withdrawals.
type DepositPool struct {
	ReserveA      decimal.Decimal
	ReserveB      decimal.Decimal
	LPTokenSupply decimal.Decimal
	FeeRate       decimal.Decimal
	Weight        decimal.Decimal
	KindA         amount.Kind
	KindB         amount.Kind
}

func (p DepositPool) validate() error {
	if !p.ReserveA.IsPositive() {
		return invalidf("reserveA %s must be positive", p.ReserveA)
	}
	if !p.ReserveB.IsPositive() {
		return invalidf("reserveB %s must be positive", p.ReserveB)
	}
	if !p.LPTokenSupply.IsPositive() {
		return invalidf("lpTokenSupply %s must be positive", p.LPTokenSupply)
	}
	return nil
}

// Side returns the single-asset view of the pool for asset A or B.
func (p DepositPool) Side(asset DepositAsset) (SingleAssetPool, error) {
	side := SingleAssetPool{
		LPTokenSupply: p.LPTokenSupply,
		FeeRate:       p.FeeRate,
		Weight:        p.Weight,
	}
	switch asset {
	case AssetA:
		side.Reserve, side.Kind = p.ReserveA, p.KindA
	case AssetB:
		side.Reserve, side.Kind = p.ReserveB, p.KindB
	default:
		return SingleAssetPool{}, invalidf("%s is not a single pool asset", asset)
	}
	return side, nil
}

// SingleAssetPool is one side of a pool plus the pool-wide LP supply and fee.
type SingleAssetPool struct {
	Reserve       decimal.Decimal
	LPTokenSupply decimal.Decimal
	FeeRate       decimal.Decimal
	Weight        decimal.Decimal
	Kind          amount.Kind
}

func (p SingleAssetPool) validate() error {
	if !p.Weight.Equal(EqualWeight) {
		return fmt.Errorf("%w: weight %s, only %s is supported", ErrUnsupportedWeight, p.Weight, EqualWeight)
	}
	if !p.Reserve.IsPositive() {
		return invalidf("reserve %s must be positive", p.Reserve)
	}
	if !p.LPTokenSupply.IsPositive() {
		return invalidf("lpTokenSupply %s must be positive", p.LPTokenSupply)
	}
	if p.FeeRate.IsNegative() || p.FeeRate.GreaterThan(MaxPoolFeeRate) {
		return invalidf("feeRate %s must be in [0, %s]", p.FeeRate, MaxPoolFeeRate)
	}
	return nil
}

// feeMultiplier is 1 - F*(1-W): the share of a single-asset amount that is
// not charged the trading fee.
func (p SingleAssetPool) feeMultiplier() decimal.Decimal {
	return amount.One.Sub(p.FeeRate.Mul(amount.One.Sub(p.Weight)))
}

// DepositAsset selects which pool assets a deposit uses.
type DepositAsset uint8

const (
	Both DepositAsset = iota
	AssetA
	AssetB
)

func (a DepositAsset) String() string {
	switch a {
	case Both:
		return "both"
	case AssetA:
		return "a"
	case AssetB:
		return "b"
	default:
		return fmt.Sprintf("DepositAsset(%d)", uint8(a))
	}
}

// ParseDepositAsset accepts "a", "b" or "both" (case-insensitive).
func ParseDepositAsset(s string) (DepositAsset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "":
		return Both, nil
	case "a", "asset1":
		return AssetA, nil
	case "b", "asset2":
		return AssetB, nil
	default:
		return Both, invalidf("unknown deposit asset %q", s)
	}
}

func (a DepositAsset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *DepositAsset) UnmarshalText(text []byte) error {
	parsed, err := ParseDepositAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// DepositRequest asks for DesiredLPTokens new LP tokens.
type DepositRequest struct {
	DesiredLPTokens decimal.Decimal `json:"desired_lp_tokens"`
	Asset           DepositAsset    `json:"asset"`
	Slippage        decimal.Decimal `json:"slippage"`
}

// ProportionalDeposit is the exact asset pair for a balanced deposit.
type ProportionalDeposit struct {
	AmountA decimal.Decimal `json:"amount_a"`
	AmountB decimal.Decimal `json:"amount_b"`
}

// SingleAssetDeposit is the solved amount for a one-sided deposit.
type SingleAssetDeposit struct {
	ExactAmount           decimal.Decimal `json:"exact_amount"`
	MaxAmountWithSlippage decimal.Decimal `json:"max_amount_with_slippage"`
	// Solved is the bisection root before rounding.
	Solved     decimal.Decimal `json:"solved"`
	Iterations int             `json:"iterations"`
}

// DepositQuote holds exactly one of Proportional or Single.
type DepositQuote struct {
	Asset        DepositAsset         `json:"asset"`
	Proportional *ProportionalDeposit `json:"proportional,omitempty"`
	Single       *SingleAssetDeposit  `json:"single,omitempty"`
}

// ProportionalWithdrawal is the asset pair returned for burning LP tokens.
type ProportionalWithdrawal struct {
	LPTokensIn decimal.Decimal `json:"lp_tokens_in"`
	AmountA    decimal.Decimal `json:"amount_a"`
	AmountB    decimal.Decimal `json:"amount_b"`
	MinAmountA decimal.Decimal `json:"min_amount_a"`
	MinAmountB decimal.Decimal `json:"min_amount_b"`
}

// SingleAssetWithdrawal is the amount of one asset returned for LP tokens.
type SingleAssetWithdrawal struct {
	LPTokensIn decimal.Decimal `json:"lp_tokens_in"`
	Amount     decimal.Decimal `json:"amount"`
	MinAmount  decimal.Decimal `json:"min_amount"`
}

// WithdrawalCost is the LP tokens needed to take a fixed amount of one asset.
type WithdrawalCost struct {
	Amount                  decimal.Decimal `json:"amount"`
	LPTokensIn              decimal.Decimal `json:"lp_tokens_in"`
	MaxLPTokensWithSlippage decimal.Decimal `json:"max_lp_tokens_with_slippage"`
}
