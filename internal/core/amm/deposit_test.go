package amm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

func depositPool(a, b, supply, fee string) DepositPool {
	return DepositPool{
		ReserveA:      d(a),
		ReserveB:      d(b),
		LPTokenSupply: d(supply),
		FeeRate:       d(fee),
		Weight:        EqualWeight,
	}
}

func singlePool(reserve, supply, fee string) SingleAssetPool {
	return SingleAssetPool{
		Reserve:       d(reserve),
		LPTokenSupply: d(supply),
		FeeRate:       d(fee),
		Weight:        EqualWeight,
	}
}

func TestQuoteProportionalDeposit(t *testing.T) {
	q, err := QuoteProportionalDeposit(depositPool("1000", "2000", "1000", "0"), d("10"))
	require.NoError(t, err)
	assert.Equal(t, "10.000000", q.AmountA.StringFixed(6))
	assert.Equal(t, "20.000000", q.AmountB.StringFixed(6))
}

func TestQuoteProportionalDepositKeepsRatio(t *testing.T) {
	pool := depositPool("1234.5", "6789.1", "3333", "0.001")
	ratio := pool.ReserveA.DivRound(pool.ReserveB, 30)
	for _, lp := range []string{"0.0001", "1", "77.7", "3333", "10000"} {
		q, err := QuoteProportionalDeposit(pool, d(lp))
		require.NoError(t, err)
		got := q.AmountA.DivRound(q.AmountB, 30)
		tolerance := d("1e-12")
		if lp == "0.0001" {
			tolerance = d("1e-9")
		}
		assertNear(t, ratio, got, tolerance)
	}
}

func TestQuoteProportionalDepositRoundsUp(t *testing.T) {
	pool := depositPool("1000", "1000", "3", "0")
	pool.KindA = amount.Native
	q, err := QuoteProportionalDeposit(pool, d("1"))
	require.NoError(t, err)
	assertDecimal(t, "333.333334", q.AmountA)
	assertDecimal(t, "333.333333333333334", q.AmountB)
}

func TestQuoteProportionalDepositInvalid(t *testing.T) {
	tests := []struct {
		name string
		pool DepositPool
		lp   string
	}{
		{"zero reserveA", depositPool("0", "1", "1", "0"), "1"},
		{"zero reserveB", depositPool("1", "0", "1", "0"), "1"},
		{"zero supply", depositPool("1", "1", "0", "0"), "1"},
		{"negative desired", depositPool("1", "1", "1", "0"), "-1"},
		{"zero desired", depositPool("1", "1", "1", "0"), "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteProportionalDeposit(tc.pool, d(tc.lp))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLPTokensOut(t *testing.T) {
	// sqrt(1 + 20.1/1000) = 1.01
	l, err := Default.LPTokensOut(singlePool("1000", "1000", "0"), d("20.1"))
	require.NoError(t, err)
	assertDecimal(t, "10", l)

	zero, err := Default.LPTokensOut(singlePool("1000", "1000", "0.01"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = Default.LPTokensOut(singlePool("1000", "1000", "0"), d("-1"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuoteSingleAssetDeposit(t *testing.T) {
	tolerance := Default.Params().Tolerance

	tests := []struct {
		name    string
		pool    SingleAssetPool
		lp      string
		approxB string
	}{
		{"no fee", singlePool("1000", "1000", "0"), "10", "20.1"},
		{"max fee", singlePool("1000", "1000", "0.01"), "10", "20.201005025125628"},
		{"small request", singlePool("250000", "12000", "0.003"), "0.5", "20.865065"},
		{"request above seeded bracket", singlePool("1000", "1000", "0"), "10000", "120000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := QuoteSingleAssetDeposit(tc.pool, d(tc.lp), d("0.01"))
			require.NoError(t, err)

			minted, err := Default.LPTokensOut(tc.pool, q.Solved)
			require.NoError(t, err)
			assertNear(t, d(tc.lp), minted, tolerance)

			assertNear(t, d(tc.approxB), q.ExactAmount, d("0.001"))
			assert.True(t, q.ExactAmount.GreaterThanOrEqual(q.Solved))
			assert.True(t, q.MaxAmountWithSlippage.GreaterThanOrEqual(q.ExactAmount))
			assert.LessOrEqual(t, q.Iterations, DefaultMaxIterations)
		})
	}
}

func TestQuoteSingleAssetDepositNeverUnderMints(t *testing.T) {
	tests := []struct {
		name string
		pool SingleAssetPool
		lp   string
	}{
		{"balanced pool", singlePool("1000", "1000", "0.003"), "10"},
		{"half token", singlePool("1000", "1000", "0.003"), "0.5"},
		{"deep pool small request", singlePool("5000", "70.7", "0.003"), "0.01"},
		{"skewed pool", singlePool("250000", "12000", "0.003"), "0.5"},
		{"max fee", singlePool("1000", "1000", "0.01"), "3.3"},
		{"tiny request", singlePool("1000", "1000", "0"), "0.00000001"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, kind := range []amount.Kind{amount.Issued, amount.Native} {
				pool := tc.pool
				pool.Kind = kind
				q, err := QuoteSingleAssetDeposit(pool, d(tc.lp), decimal.Zero)
				require.NoError(t, err)

				minted, err := Default.LPTokensOut(pool, q.ExactAmount)
				require.NoError(t, err)
				assert.True(t, minted.GreaterThanOrEqual(d(tc.lp)), "%s: exact %s mints %s", kind, q.ExactAmount, minted)

				solved, err := Default.LPTokensOut(pool, q.Solved)
				require.NoError(t, err)
				assert.True(t, solved.GreaterThanOrEqual(d(tc.lp)), "%s: solved %s mints %s", kind, q.Solved, solved)
			}
		})
	}
}

func TestQuoteSingleAssetDepositTinyRequests(t *testing.T) {
	pool := singlePool("1000", "1000", "0")
	for _, tc := range []struct{ lp, deposit string }{
		{"0.00000001", "0.00000002"},
		{"0.0000001", "0.0000002"},
	} {
		q, err := QuoteSingleAssetDeposit(pool, d(tc.lp), decimal.Zero)
		require.NoError(t, err)
		assertNear(t, d(tc.deposit), q.ExactAmount, d("1e-14"))
	}
}

func TestQuoteSingleAssetDepositPrecision(t *testing.T) {
	pool := singlePool("1000", "1000", "0")
	pool.Kind = amount.Native
	q, err := QuoteSingleAssetDeposit(pool, d("10"), d("0.05"))
	require.NoError(t, err)
	assertNear(t, d("20.1"), q.ExactAmount, d("0.000001"))
	assert.LessOrEqual(t, -q.ExactAmount.Exponent(), amount.NativePrecision)
	assert.True(t, q.MaxAmountWithSlippage.Equal(amount.RoundUp(q.ExactAmount.Mul(d("1.05")), amount.NativePrecision)))
}

func TestQuoteSingleAssetDepositErrors(t *testing.T) {
	t.Run("unsupported weight", func(t *testing.T) {
		pool := singlePool("1000", "1000", "0")
		pool.Weight = d("0.6")
		_, err := QuoteSingleAssetDeposit(pool, d("10"), decimal.Zero)
		require.ErrorIs(t, err, ErrUnsupportedWeight)
		assert.Equal(t, KindUnsupportedWeight, KindOf(err))
	})

	t.Run("unset weight", func(t *testing.T) {
		pool := singlePool("1000", "1000", "0")
		pool.Weight = decimal.Zero
		_, err := QuoteSingleAssetDeposit(pool, d("10"), decimal.Zero)
		assert.ErrorIs(t, err, ErrUnsupportedWeight)
	})

	invalid := []struct {
		name string
		pool SingleAssetPool
		lp   string
		slip string
	}{
		{"zero reserve", singlePool("0", "1000", "0"), "10", "0"},
		{"zero supply", singlePool("1000", "0", "0"), "10", "0"},
		{"zero desired", singlePool("1000", "1000", "0"), "0", "0"},
		{"fee above pool maximum", singlePool("1000", "1000", "0.02"), "10", "0"},
		{"negative slippage", singlePool("1000", "1000", "0"), "10", "-0.1"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteSingleAssetDeposit(tc.pool, d(tc.lp), d(tc.slip))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestQuoteSingleAssetDepositBracketExhausted(t *testing.T) {
	params := DefaultParams()
	params.MaxBracketDoublings = 0
	c, err := NewCalculator(params)
	require.NoError(t, err)

	_, err = c.QuoteSingleAssetDeposit(singlePool("1000", "1000", "0"), d("10000"), decimal.Zero)
	assert.ErrorIs(t, err, ErrCalculationInvalid)
}

func TestQuoteDeposit(t *testing.T) {
	pool := depositPool("1000", "2000", "1000", "0")

	both, err := Default.QuoteDeposit(pool, DepositRequest{DesiredLPTokens: d("10"), Asset: Both})
	require.NoError(t, err)
	require.NotNil(t, both.Proportional)
	assert.Nil(t, both.Single)
	assertDecimal(t, "20", both.Proportional.AmountB)

	single, err := Default.QuoteDeposit(pool, DepositRequest{DesiredLPTokens: d("10"), Asset: AssetB, Slippage: d("0.01")})
	require.NoError(t, err)
	require.NotNil(t, single.Single)
	assert.Nil(t, single.Proportional)
	assert.Equal(t, AssetB, single.Asset)
	assertNear(t, d("40.2"), single.Single.ExactAmount, d("0.000001"))

	_, err = Default.QuoteDeposit(pool, DepositRequest{DesiredLPTokens: d("10"), Asset: DepositAsset(9)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseDepositAsset(t *testing.T) {
	for in, want := range map[string]DepositAsset{"a": AssetA, "B": AssetB, "both": Both, "": Both, "asset2": AssetB} {
		got, err := ParseDepositAsset(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDepositAsset("c")
	assert.ErrorIs(t, err, ErrInvalidInput)

	var a DepositAsset
	require.NoError(t, a.UnmarshalText([]byte("b")))
	assert.Equal(t, AssetB, a)
}
