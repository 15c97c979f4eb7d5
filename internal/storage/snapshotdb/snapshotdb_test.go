package snapshotdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeJamon/ammquote/internal/pool"
)

var usd = pool.Asset{Currency: "USD", Issuer: "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq"}

func snapshotAt(ledger uint32, xrp string) pool.Snapshot {
	return pool.Snapshot{
		Asset:         pool.XRP,
		Asset2:        usd,
		Amount:        decimal.RequireFromString(xrp),
		Amount2:       decimal.RequireFromString("2500.123456789012345"),
		LPTokenSupply: decimal.RequireFromString("31622.776601683793"),
		TradingFee:    500,
		LedgerIndex:   ledger,
	}
}

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "snapshots.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Driver: DriverSQLite, DSN: "x.db"}.Validate())
	assert.NoError(t, Config{Driver: DriverPostgres, DSN: "host=localhost"}.Validate())
	assert.Error(t, Config{Driver: "mysql", DSN: "x"}.Validate())
	assert.Error(t, Config{Driver: DriverSQLite}.Validate())

	_, err := Open(context.Background(), Config{Driver: "bolt", DSN: "x"})
	assert.ErrorContains(t, err, "invalid snapshot database config")
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "a = $1 AND b <= $2 LIMIT $3", pg.rebind("a = ? AND b <= ? LIMIT ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, db.Save(ctx, snapshotAt(100, "1000.5")))
	require.NoError(t, db.Save(ctx, snapshotAt(105, "1001.25")))
	require.NoError(t, db.Save(ctx, snapshotAt(103, "999")))

	key, err := pool.NewKey(usd, pool.XRP)
	require.NoError(t, err)

	latest, err := db.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint32(105), latest.LedgerIndex)
	assert.True(t, latest.Amount.Equal(decimal.RequireFromString("1001.25")))
	assert.True(t, latest.Amount2.Equal(decimal.RequireFromString("2500.123456789012345")), "issued precision must survive storage")
	assert.Equal(t, pool.XRP, latest.Asset)
	assert.Equal(t, usd, latest.Asset2)
	assert.EqualValues(t, 500, latest.TradingFee)

	at, err := db.At(ctx, key, 104)
	require.NoError(t, err)
	assert.Equal(t, uint32(103), at.LedgerIndex)

	_, err = db.At(ctx, key, 99)
	assert.ErrorIs(t, err, pool.ErrNotFound)

	view, err := db.AtLedger(100).Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), view.LedgerIndex)

	history, err := db.History(ctx, key, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, uint32(105), history[0].LedgerIndex)
	assert.Equal(t, uint32(103), history[1].LedgerIndex)
}

func TestSaveReplacesSameLedger(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, db.Save(ctx, snapshotAt(7, "10")))
	require.NoError(t, db.Save(ctx, snapshotAt(7, "11")))

	history, err := db.History(ctx, snapshotAt(7, "1").Key(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Amount.Equal(decimal.NewFromInt(11)))
}

func TestSaveRejectsInvalid(t *testing.T) {
	db := openSQLite(t)
	bad := snapshotAt(1, "0")
	assert.Error(t, db.Save(context.Background(), bad))
}

func TestClosed(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.Close())

	_, err := db.Snapshot(context.Background(), snapshotAt(1, "1").Key())
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	assert.ErrorIs(t, db.Save(context.Background(), snapshotAt(1, "1")), ErrDatabaseClosed)
}

type fetchFunc func(context.Context, pool.Key) (pool.Snapshot, error)

func (f fetchFunc) Snapshot(ctx context.Context, key pool.Key) (pool.Snapshot, error) {
	return f(ctx, key)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	ledger := uint32(40)
	next := fetchFunc(func(context.Context, pool.Key) (pool.Snapshot, error) {
		ledger++
		return snapshotAt(ledger, "500"), nil
	})
	rec := NewRecorder(next, db, zap.NewNop())
	key := snapshotAt(0, "1").Key()

	for i := 0; i < 3; i++ {
		_, err := rec.Snapshot(ctx, key)
		require.NoError(t, err)
	}
	history, err := db.History(ctx, key, 10)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	failing := NewRecorder(fetchFunc(func(context.Context, pool.Key) (pool.Snapshot, error) {
		return pool.Snapshot{}, errors.New("node down")
	}), db, nil)
	_, err = failing.Snapshot(ctx, key)
	assert.EqualError(t, err, "node down")
}

// Runs against a real server when AMMQUOTE_TEST_POSTGRES_DSN is set.
func TestPostgres(t *testing.T) {
	dsn := os.Getenv("AMMQUOTE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AMMQUOTE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	defer db.Close()

	snap := snapshotAt(9_000_000, "1234.567891")
	require.NoError(t, db.Save(ctx, snap))
	got, err := db.At(ctx, snap.Key(), 9_000_000)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(snap.Amount))
}
