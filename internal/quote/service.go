// Package quote answers swap, deposit and withdrawal quote requests against
// pools fetched from a pool.Provider.
package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/ammquote/internal/core/amm"
	"github.com/LeJamon/ammquote/internal/pool"
)

const defaultBatchWorkers = 4

var defaultSlippage = decimal.New(5, -3)

type Config struct {
	// DefaultSlippage applies when a request carries none.
	DefaultSlippage decimal.Decimal
	// BatchWorkers bounds the quotes computed at once by Batch.
	BatchWorkers int
}

func DefaultConfig() Config {
	return Config{DefaultSlippage: defaultSlippage, BatchWorkers: defaultBatchWorkers}
}

func (c Config) Validate() error {
	if c.DefaultSlippage.IsNegative() || c.DefaultSlippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("default slippage %s must be in [0, 1)", c.DefaultSlippage)
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("batch workers %d must be positive", c.BatchWorkers)
	}
	return nil
}

// Service prices requests against live pool state. Domain failures come back
// as unsuccessful Results; the error return is kept for provider failures.
type Service struct {
	provider pool.Provider
	calc     *amm.Calculator
	config   Config
	logger   *zap.Logger
}

func NewService(provider pool.Provider, calc *amm.Calculator, config Config, logger *zap.Logger) (*Service, error) {
	if provider == nil {
		return nil, errors.New("pool provider is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quote config: %w", err)
	}
	if calc == nil {
		calc = amm.Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, calc: calc, config: config, logger: logger}, nil
}

func (s *Service) slippage(requested *decimal.Decimal) decimal.Decimal {
	if requested == nil {
		return s.config.DefaultSlippage
	}
	return *requested
}

// reject turns a domain failure into an unsuccessful Result. Anything else is
// returned as an error.
func (s *Service) reject(res Result, err error) (Result, error) {
	kind := amm.KindOf(err)
	if errors.Is(err, pool.ErrInvalidAsset) || errors.Is(err, pool.ErrAssetMismatch) {
		kind = amm.KindInvalidInput
	}
	if kind == amm.KindUnknown {
		return Result{}, err
	}

	s.logger.Debug("quote rejected",
		zap.String("id", res.ID),
		zap.Stringer("kind", kind),
		zap.Error(err))
	return Result{
		ID:      res.ID,
		Success: false,
		Error:   kind.String(),
		Message: err.Error(),
		Pool:    res.Pool,
	}, nil
}

func (s *Service) snapshot(ctx context.Context, a, b pool.Asset) (pool.Snapshot, error) {
	key, err := pool.NewKey(a, b)
	if err != nil {
		return pool.Snapshot{}, err
	}
	snap, err := s.provider.Snapshot(ctx, key)
	if err != nil {
		return pool.Snapshot{}, fmt.Errorf("fetching pool %s: %w", key, err)
	}
	return snap, nil
}

func (s *Service) Swap(ctx context.Context, req SwapRequest) (Result, error) {
	var res Result
	snap, err := s.snapshot(ctx, req.Sell, req.Buy)
	if err != nil {
		return s.reject(res, err)
	}
	res.Pool = &snap

	sp, err := snap.SwapPool(req.Sell)
	if err != nil {
		return s.reject(res, err)
	}
	spot, err := s.calc.SpotPrice(sp)
	if err != nil {
		return s.reject(res, err)
	}
	quote := &SwapQuote{Sell: req.Sell, Buy: req.Buy, SpotPrice: spot}
	var drops Drops

	if req.ExactOutput {
		q, err := s.calc.QuoteExactOutput(sp, req.Amount, s.slippage(req.Slippage))
		if err != nil {
			return s.reject(res, err)
		}
		quote.ExactOutput = &q
		drops = Drops{
			SendMax:    sendMax(req.Sell, q.InputWithSlippage),
			DeliverMin: deliverMin(req.Buy, q.DesiredOutput),
		}
	} else {
		q, err := s.calc.QuoteExactInput(sp, req.Amount)
		if err != nil {
			return s.reject(res, err)
		}
		quote.ExactInput = &q
		drops = Drops{SendMax: sendMax(req.Sell, q.AmountIn)}
	}

	s.logger.Debug("swap quoted",
		zap.String("pool", snap.Key().ID()),
		zap.Uint32("ledger_index", snap.LedgerIndex),
		zap.Bool("exact_output", req.ExactOutput),
		zap.Stringer("amount", req.Amount))
	res.Success = true
	res.Swap = quote
	return withDrops(res, drops), nil
}

func (s *Service) Deposit(ctx context.Context, req DepositRequest) (Result, error) {
	var res Result
	snap, err := s.snapshot(ctx, req.Asset, req.Asset2)
	if err != nil {
		return s.reject(res, err)
	}
	if snap, err = snap.Orient(req.Asset); err != nil {
		return s.reject(res, err)
	}
	res.Pool = &snap

	side := amm.Both
	if req.Single != nil {
		if side, err = snap.Side(*req.Single); err != nil {
			return s.reject(res, err)
		}
	}

	q, err := s.calc.QuoteDeposit(snap.DepositPool(), amm.DepositRequest{
		DesiredLPTokens: req.LPTokens,
		Asset:           side,
		Slippage:        s.slippage(req.Slippage),
	})
	if err != nil {
		return s.reject(res, err)
	}

	fields := []zap.Field{
		zap.String("pool", snap.Key().ID()),
		zap.Stringer("side", side),
		zap.Stringer("lp_tokens", req.LPTokens),
	}
	if q.Single != nil {
		fields = append(fields, zap.Int("iterations", q.Single.Iterations))
	}
	s.logger.Debug("deposit quoted", fields...)

	var drops Drops
	if q.Single != nil {
		drops.SendMax = sendMax(*req.Single, q.Single.MaxAmountWithSlippage)
	}
	res.Success = true
	res.Deposit = &q
	return withDrops(res, drops), nil
}

func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (Result, error) {
	var res Result
	snap, err := s.snapshot(ctx, req.Asset, req.Asset2)
	if err != nil {
		return s.reject(res, err)
	}
	if snap, err = snap.Orient(req.Asset); err != nil {
		return s.reject(res, err)
	}
	res.Pool = &snap

	dp := snap.DepositPool()
	slippage := s.slippage(req.Slippage)
	quote := &WithdrawalQuote{}
	var drops Drops

	if req.Single == nil {
		q, err := s.calc.QuoteProportionalWithdraw(dp, req.LPTokens, slippage)
		if err != nil {
			return s.reject(res, err)
		}
		quote.Proportional = &q
	} else {
		side, err := snap.Side(*req.Single)
		if err != nil {
			return s.reject(res, err)
		}
		single, err := dp.Side(side)
		if err != nil {
			return s.reject(res, err)
		}

		switch {
		case !req.LPTokens.IsZero() && !req.Amount.IsZero():
			return s.reject(res, fmt.Errorf("%w: set either lp_tokens or amount, not both", amm.ErrInvalidInput))
		case !req.LPTokens.IsZero():
			q, err := s.calc.QuoteSingleAssetWithdraw(single, req.LPTokens, slippage)
			if err != nil {
				return s.reject(res, err)
			}
			quote.Single = &q
			drops.DeliverMin = deliverMin(*req.Single, q.MinAmount)
		default:
			q, err := s.calc.LPTokensForWithdrawal(single, req.Amount, slippage)
			if err != nil {
				return s.reject(res, err)
			}
			quote.Cost = &q
		}
	}

	s.logger.Debug("withdrawal quoted",
		zap.String("pool", snap.Key().ID()),
		zap.Bool("single", req.Single != nil))
	res.Success = true
	res.Withdrawal = quote
	return withDrops(res, drops), nil
}

// Quote runs the single operation set on req.
func (s *Service) Quote(ctx context.Context, req Request) (Result, error) {
	if n := req.operations(); n != 1 {
		return s.reject(Result{ID: req.ID},
			fmt.Errorf("%w: request must set exactly one of swap, deposit or withdraw, got %d", amm.ErrInvalidInput, n))
	}

	var (
		res Result
		err error
	)
	switch {
	case req.Swap != nil:
		res, err = s.Swap(ctx, *req.Swap)
	case req.Deposit != nil:
		res, err = s.Deposit(ctx, *req.Deposit)
	default:
		res, err = s.Withdraw(ctx, *req.Withdraw)
	}
	if err != nil {
		return Result{}, err
	}
	res.ID = req.ID
	return res, nil
}

// Batch quotes reqs concurrently, at most BatchWorkers at a time. Results
// keep the order of reqs. A rejected quote does not stop the batch; a
// provider failure cancels it.
func (s *Service) Batch(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchWorkers)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Quote(ctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rejected := 0
	for _, res := range results {
		if !res.Success {
			rejected++
		}
	}
	s.logger.Info("batch quoted",
		zap.Int("requests", len(reqs)),
		zap.Int("rejected", rejected))
	return results, nil
}
