package pool

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/ammquote/internal/core/amm"
	"github.com/LeJamon/ammquote/internal/core/amount"
)

// Snapshot is the state of a pool at one ledger. Balances are in display
// units: XRP rather than drops.
type Snapshot struct {
	Asset         Asset             `json:"asset"`
	Asset2        Asset             `json:"asset2"`
	Amount        decimal.Decimal   `json:"amount"`
	Amount2       decimal.Decimal   `json:"amount2"`
	LPTokenSupply decimal.Decimal   `json:"lp_token_supply"`
	TradingFee    amount.TradingFee `json:"trading_fee"`
	LedgerIndex   uint32            `json:"ledger_index,omitempty"`
}

func (s Snapshot) Key() Key {
	return Key{Asset: s.Asset, Asset2: s.Asset2}
}

func (s Snapshot) FeeRate() decimal.Decimal {
	return s.TradingFee.Rate()
}

func (s Snapshot) Validate() error {
	if _, err := NewKey(s.Asset, s.Asset2); err != nil {
		return err
	}
	if !s.Amount.IsPositive() || !s.Amount2.IsPositive() {
		return fmt.Errorf("%w: balances %s and %s must be positive", amm.ErrInvalidInput, s.Amount, s.Amount2)
	}
	if !s.LPTokenSupply.IsPositive() {
		return fmt.Errorf("%w: lp token supply %s must be positive", amm.ErrInvalidInput, s.LPTokenSupply)
	}
	if err := s.TradingFee.Validate(); err != nil {
		return fmt.Errorf("%w: %v", amm.ErrInvalidInput, err)
	}
	return nil
}

// Orient returns the snapshot with first as Asset.
func (s Snapshot) Orient(first Asset) (Snapshot, error) {
	switch first {
	case s.Asset:
		return s, nil
	case s.Asset2:
		s.Asset, s.Asset2 = s.Asset2, s.Asset
		s.Amount, s.Amount2 = s.Amount2, s.Amount
		return s, nil
	default:
		return Snapshot{}, fmt.Errorf("%w: %s not in %s", ErrAssetMismatch, first, s.Key())
	}
}

// SwapPool returns the swap view of the pool when selling in.
func (s Snapshot) SwapPool(in Asset) (amm.SwapPool, error) {
	o, err := s.Orient(in)
	if err != nil {
		return amm.SwapPool{}, err
	}
	return amm.SwapPool{
		ReserveIn:  o.Amount,
		ReserveOut: o.Amount2,
		FeeRate:    o.FeeRate(),
		In:         o.Asset.Kind(),
		Out:        o.Asset2.Kind(),
	}, nil
}

// DepositPool returns the deposit and withdrawal view of the pool. Pools on
// the ledger are always equally weighted.
func (s Snapshot) DepositPool() amm.DepositPool {
	return amm.DepositPool{
		ReserveA:      s.Amount,
		ReserveB:      s.Amount2,
		LPTokenSupply: s.LPTokenSupply,
		FeeRate:       s.FeeRate(),
		Weight:        amm.EqualWeight,
		KindA:         s.Asset.Kind(),
		KindB:         s.Asset2.Kind(),
	}
}

// Side maps an asset of the pool to the deposit side it occupies.
func (s Snapshot) Side(a Asset) (amm.DepositAsset, error) {
	switch a {
	case s.Asset:
		return amm.AssetA, nil
	case s.Asset2:
		return amm.AssetB, nil
	default:
		return amm.Both, fmt.Errorf("%w: %s not in %s", ErrAssetMismatch, a, s.Key())
	}
}
