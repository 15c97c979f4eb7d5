package amm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), append([]any{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func assertNear(t *testing.T, want, got, epsilon decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Sub(want).Abs().LessThanOrEqual(epsilon), "want %s ± %s, got %s", want, epsilon, got)
}

func swapPool(in, out, fee string) SwapPool {
	return SwapPool{ReserveIn: d(in), ReserveOut: d(out), FeeRate: d(fee)}
}

func TestQuoteExactInput(t *testing.T) {
	t.Run("balanced pool without fee", func(t *testing.T) {
		q, err := QuoteExactInput(swapPool("1000", "1000", "0"), d("100"))
		require.NoError(t, err)
		assertDecimal(t, "90.909090909090909", q.EstimatedOutput)
		assertDecimal(t, "1100", q.NewReserveIn)
		assertDecimal(t, "909.090909090909091", q.NewReserveOut)
		assertDecimal(t, "1.1", q.PricePerUnit)
		assertDecimal(t, "100", q.AmountIn)
	})

	t.Run("fee deducted from output", func(t *testing.T) {
		q, err := QuoteExactInput(swapPool("1000", "1000", "0.003"), d("100"))
		require.NoError(t, err)
		assertDecimal(t, "90.636363636363636", q.EstimatedOutput)
		assertDecimal(t, "909.090909090909091", q.NewReserveOut, "fee must not change the invariant leg")
		assertDecimal(t, "1.103309929789368", q.PricePerUnit)
	})

	t.Run("skewed pool", func(t *testing.T) {
		q, err := QuoteExactInput(swapPool("5000", "250", "0.005"), d("37.5"))
		require.NoError(t, err)
		assertDecimal(t, "1.851736972704715", q.EstimatedOutput)
		assertDecimal(t, "248.138957816377171", q.NewReserveOut)
	})

	t.Run("native output rounds to drops", func(t *testing.T) {
		pool := swapPool("1000", "1000", "0")
		pool.Out = amount.Native
		q, err := QuoteExactInput(pool, d("100"))
		require.NoError(t, err)
		assertDecimal(t, "90.909091", q.EstimatedOutput)
	})
}

func TestQuoteExactInputInvalid(t *testing.T) {
	tests := []struct {
		name     string
		pool     SwapPool
		amountIn string
	}{
		{"zero reserveIn", swapPool("0", "1000", "0"), "1"},
		{"negative reserveOut", swapPool("1000", "-1", "0"), "1"},
		{"zero amount", swapPool("1000", "1000", "0"), "0"},
		{"negative amount", swapPool("1000", "1000", "0"), "-5"},
		{"fee of one", swapPool("1000", "1000", "1"), "1"},
		{"negative fee", swapPool("1000", "1000", "-0.1"), "1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteExactInput(tc.pool, d(tc.amountIn))
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		})
	}
}

func TestQuoteExactOutput(t *testing.T) {
	q, err := QuoteExactOutput(swapPool("1000", "1000", "0.003"), d("50"), d("0.01"))
	require.NoError(t, err)
	assertDecimal(t, "50", q.DesiredOutput)
	assertDecimal(t, "52.79831045406547", q.ExactInput)
	assertDecimal(t, "53.326293558606125", q.InputWithSlippage)
	assertDecimal(t, "0.527983104540655", q.SlippageAmount)
	assertDecimal(t, "1.055966209081309", q.PricePerUnit)
}

func TestQuoteExactOutputRoundTripWithoutFee(t *testing.T) {
	pools := []SwapPool{
		swapPool("1000", "1000", "0"),
		swapPool("5000", "250", "0"),
		swapPool("0.5", "123456.789", "0"),
	}
	amounts := []string{"0.001", "1", "37.5", "100"}

	epsilon := d("1e-9")
	for _, pool := range pools {
		for _, a := range amounts {
			in, err := QuoteExactInput(pool, d(a))
			require.NoError(t, err)

			out, err := QuoteExactOutput(pool, in.EstimatedOutput, decimal.Zero)
			require.NoError(t, err)
			relative := out.ExactInput.Sub(d(a)).Abs().Div(d(a))
			assert.True(t, relative.LessThanOrEqual(epsilon),
				"pool %s/%s amount %s: got %s", pool.ReserveIn, pool.ReserveOut, a, out.ExactInput)
		}
	}
}

func TestQuoteExactOutputInsufficientLiquidity(t *testing.T) {
	tests := []struct {
		name    string
		fee     string
		desired string
	}{
		{"equal to reserve", "0", "1000"},
		{"above reserve", "0", "1500"},
		{"fee pushes past reserve", "0.01", "995"},
		{"fee lands exactly on reserve", "0.01", "990"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteExactOutput(swapPool("1000", "1000", tc.fee), d(tc.desired), decimal.Zero)
			require.ErrorIs(t, err, ErrInsufficientLiquidity)
			assert.Equal(t, KindInsufficientLiquidity, KindOf(err))
		})
	}

	_, err := QuoteExactOutput(swapPool("1000", "1000", "0.01"), d("980"), decimal.Zero)
	assert.NoError(t, err)
}

func TestQuoteExactOutputInvalid(t *testing.T) {
	_, err := QuoteExactOutput(swapPool("1000", "1000", "0"), d("0"), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = QuoteExactOutput(swapPool("1000", "1000", "0"), d("10"), d("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = QuoteExactOutput(swapPool("-1", "1000", "0"), d("10"), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuoteExactOutputSlippageCeiling(t *testing.T) {
	pool := swapPool("777.7", "3210.123", "0.0025")
	pool.In = amount.Native
	for _, s := range []string{"0", "0.001", "0.005", "0.01", "0.5"} {
		q, err := QuoteExactOutput(pool, d("12.345"), d(s))
		require.NoError(t, err)
		assert.True(t, q.InputWithSlippage.GreaterThanOrEqual(q.ExactInput), "slippage %s", s)
		assert.False(t, q.SlippageAmount.IsNegative())
		assert.LessOrEqual(t, -q.ExactInput.Exponent(), amount.NativePrecision)
	}
}

func TestSpotPrice(t *testing.T) {
	p, err := Default.SpotPrice(swapPool("1000", "1000", "0.003"))
	require.NoError(t, err)
	assertDecimal(t, "1.003009027081244", p)

	_, err = Default.SpotPrice(swapPool("0", "1000", "0"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
