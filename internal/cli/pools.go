package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/LeJamon/ammquote/internal/core/amount"
	"github.com/LeJamon/ammquote/internal/pool"
	"github.com/LeJamon/ammquote/internal/quote"
	"github.com/LeJamon/ammquote/internal/storage/snapshotdb"
)

var errRejected = errors.New("quote rejected")

// poolOptions selects the pool a command works on. Giving --amount and
// --amount2 prices against those balances instead of a node or database.
type poolOptions struct {
	asset      string
	asset2     string
	amount     string
	amount2    string
	lpSupply   string
	tradingFee uint16
	feeRate    string
	ledger     uint32
}

func (o *poolOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.asset, "asset", "XRP", "first pool asset, XRP or CURRENCY.ISSUER")
	f.StringVar(&o.asset2, "asset2", "", "second pool asset, XRP or CURRENCY.ISSUER")
	f.StringVar(&o.amount, "amount", "", "pool balance of --asset")
	f.StringVar(&o.amount2, "amount2", "", "pool balance of --asset2")
	f.StringVar(&o.lpSupply, "lp-supply", "", "outstanding LP tokens (default sqrt(amount*amount2))")
	f.Uint16Var(&o.tradingFee, "trading-fee", 0, "trading fee in units of 1/100000 (max 1000)")
	f.StringVar(&o.feeRate, "fee-rate", "", "trading fee as a fraction, e.g. 0.003 (instead of --trading-fee)")
	f.Uint32Var(&o.ledger, "ledger", 0, "read the pool as of this ledger from the snapshot database")
}

func (o *poolOptions) offline() bool {
	return o.amount != "" || o.amount2 != ""
}

func (o *poolOptions) key() (pool.Key, error) {
	a, err := pool.ParseAsset(o.asset)
	if err != nil {
		return pool.Key{}, fmt.Errorf("--asset: %w", err)
	}
	if o.asset2 == "" {
		return pool.Key{}, errors.New("--asset2 is required")
	}
	b, err := pool.ParseAsset(o.asset2)
	if err != nil {
		return pool.Key{}, fmt.Errorf("--asset2: %w", err)
	}
	return pool.NewKey(a, b)
}

// snapshot builds the pool given on the command line. A missing LP supply
// defaults to what the ledger issues when a pool is created.
func (o *poolOptions) snapshot() (pool.Snapshot, error) {
	key, err := o.key()
	if err != nil {
		return pool.Snapshot{}, err
	}
	a, err := amount.Parse(o.amount)
	if err != nil {
		return pool.Snapshot{}, fmt.Errorf("--amount: %w", err)
	}
	b, err := amount.Parse(o.amount2)
	if err != nil {
		return pool.Snapshot{}, fmt.Errorf("--amount2: %w", err)
	}

	var lp decimal.Decimal
	if o.lpSupply != "" {
		if lp, err = amount.Parse(o.lpSupply); err != nil {
			return pool.Snapshot{}, fmt.Errorf("--lp-supply: %w", err)
		}
	} else if a.IsPositive() && b.IsPositive() {
		if lp, err = amount.Sqrt(a.Mul(b), amount.IssuedPrecision); err != nil {
			return pool.Snapshot{}, err
		}
	}

	fee := amount.TradingFee(o.tradingFee)
	if o.feeRate != "" {
		if o.tradingFee != 0 {
			return pool.Snapshot{}, errors.New("pass either --trading-fee or --fee-rate")
		}
		rate, err := amount.Parse(o.feeRate)
		if err != nil {
			return pool.Snapshot{}, fmt.Errorf("--fee-rate: %w", err)
		}
		if fee, err = amount.FeeFromRate(rate); err != nil {
			return pool.Snapshot{}, fmt.Errorf("--fee-rate: %w", err)
		}
	}

	snap := pool.Snapshot{
		Asset:         key.Asset,
		Asset2:        key.Asset2,
		Amount:        a,
		Amount2:       b,
		LPTokenSupply: lp,
		TradingFee:    fee,
		LedgerIndex:   o.ledger,
	}
	if err := snap.Validate(); err != nil {
		return pool.Snapshot{}, err
	}
	return snap, nil
}

// provider picks the pool source: flags, then the snapshot database for a
// past ledger, then the node. The returned func releases what was opened.
func (a *app) provider(ctx context.Context, o *poolOptions) (pool.Provider, func(), error) {
	noop := func() {}
	if o.offline() {
		snap, err := o.snapshot()
		if err != nil {
			return nil, noop, err
		}
		static, err := pool.NewStatic(snap)
		return static, noop, err
	}

	var db *snapshotdb.DB
	if a.config.Store.Enabled() {
		var err error
		if db, err = snapshotdb.Open(ctx, a.config.Store.Database()); err != nil {
			return nil, noop, err
		}
	}
	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}

	if o.ledger != 0 {
		if db == nil {
			return nil, cleanup, errors.New("--ledger needs a snapshot database (store.driver)")
		}
		return db.AtLedger(o.ledger), cleanup, nil
	}

	if a.config.Node.URL == "" {
		if db != nil {
			return db, cleanup, nil
		}
		return nil, cleanup, errors.New("no pool source: pass --amount and --amount2, --node, or configure store.driver")
	}

	ws, err := pool.NewWSProvider(a.config.Node.Provider(), a.logger)
	if err != nil {
		return nil, cleanup, err
	}
	var p pool.Provider = ws
	if db != nil && a.config.Store.Record {
		p = snapshotdb.NewRecorder(p, db, a.logger)
	}
	if a.config.Cache.Enabled {
		if p, err = pool.NewCache(p, a.config.Cache.Pool(), pool.WithCacheLogger(a.logger)); err != nil {
			return nil, cleanup, err
		}
	}
	return p, cleanup, nil
}

func (a *app) service(ctx context.Context, o *poolOptions) (*quote.Service, func(), error) {
	p, cleanup, err := a.provider(ctx, o)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	qc, err := a.config.Quote.Service()
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	svc, err := quote.NewService(p, a.calc, qc, a.logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return svc, cleanup, nil
}

func parseSlippage(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := amount.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("--slippage: %w", err)
	}
	return &d, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult writes res and fails the command when the quote was rejected.
func printResult(cmd *cobra.Command, res quote.Result) error {
	if err := printJSON(cmd, res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: %s", errRejected, res.Error)
	}
	return nil
}
