// Package snapshotdb records pool snapshots in a relational database so that
// quotes can be replayed against past ledgers without a node.
package snapshotdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LeJamon/ammquote/internal/core/amount"
	"github.com/LeJamon/ammquote/internal/pool"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultTimeout = 5 * time.Second
)

var ErrDatabaseClosed = errors.New("snapshot database is closed")

type Config struct {
	Driver  string        `mapstructure:"driver"`
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported driver %q (supported: %s, %s)", c.Driver, DriverSQLite, DriverPostgres)
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn is required for driver %s", c.Driver)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// DB stores snapshots keyed by pool and ledger index. It implements
// pool.Provider by serving the most recent snapshot of a pool.
type DB struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, config Config) (*DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot database config: %w", err)
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	sqlDB, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if config.Driver == DriverSQLite {
		// one writer keeps sqlite from returning SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	}

	d := &DB{db: sqlDB, driver: config.Driver, timeout: config.Timeout}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := d.initSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func (d *DB) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS amm_snapshots (
			pool_id TEXT NOT NULL,
			ledger_index BIGINT NOT NULL,
			asset TEXT NOT NULL,
			asset2 TEXT NOT NULL,
			amount TEXT NOT NULL,
			amount2 TEXT NOT NULL,
			lp_token_supply TEXT NOT NULL,
			trading_fee INTEGER NOT NULL,
			PRIMARY KEY (pool_id, ledger_index)
		)`,
	}
	for _, q := range queries {
		if _, err := d.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the numbered form postgres expects.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save records snap, replacing any snapshot of the same pool at the same
// ledger.
func (d *DB) Save(ctx context.Context, snap pool.Snapshot) error {
	if d.db == nil {
		return ErrDatabaseClosed
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("saving %s: %w", snap.Key(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	query := d.rebind(`
		INSERT INTO amm_snapshots
			(pool_id, ledger_index, asset, asset2, amount, amount2, lp_token_supply, trading_fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (pool_id, ledger_index) DO UPDATE SET
			asset = excluded.asset,
			asset2 = excluded.asset2,
			amount = excluded.amount,
			amount2 = excluded.amount2,
			lp_token_supply = excluded.lp_token_supply,
			trading_fee = excluded.trading_fee
	`)
	_, err := d.db.ExecContext(ctx, query,
		snap.Key().ID(),
		int64(snap.LedgerIndex),
		snap.Asset.String(),
		snap.Asset2.String(),
		snap.Amount.String(),
		snap.Amount2.String(),
		snap.LPTokenSupply.String(),
		int64(snap.TradingFee),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", snap.Key(), err)
	}
	return nil
}

// Snapshot returns the most recent snapshot of key.
func (d *DB) Snapshot(ctx context.Context, key pool.Key) (pool.Snapshot, error) {
	return d.queryOne(ctx, key, `
		SELECT ledger_index, asset, asset2, amount, amount2, lp_token_supply, trading_fee
		FROM amm_snapshots
		WHERE pool_id = ?
		ORDER BY ledger_index DESC
		LIMIT 1
	`, key.ID())
}

// At returns the snapshot of key in effect at ledger: the latest one recorded
// at or before it.
func (d *DB) At(ctx context.Context, key pool.Key, ledger uint32) (pool.Snapshot, error) {
	return d.queryOne(ctx, key, `
		SELECT ledger_index, asset, asset2, amount, amount2, lp_token_supply, trading_fee
		FROM amm_snapshots
		WHERE pool_id = ? AND ledger_index <= ?
		ORDER BY ledger_index DESC
		LIMIT 1
	`, key.ID(), int64(ledger))
}

// History returns up to limit snapshots of key, newest first.
func (d *DB) History(ctx context.Context, key pool.Key, limit int) ([]pool.Snapshot, error) {
	if d.db == nil {
		return nil, ErrDatabaseClosed
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d must be positive", limit)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT ledger_index, asset, asset2, amount, amount2, lp_token_supply, trading_fee
		FROM amm_snapshots
		WHERE pool_id = ?
		ORDER BY ledger_index DESC
		LIMIT ?
	`), key.ID(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying history of %s: %w", key, err)
	}
	defer rows.Close()

	var snapshots []pool.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history of %s: %w", key, err)
	}
	return snapshots, nil
}

func (d *DB) queryOne(ctx context.Context, key pool.Key, query string, args ...any) (pool.Snapshot, error) {
	if d.db == nil {
		return pool.Snapshot{}, ErrDatabaseClosed
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	snap, err := scanSnapshot(d.db.QueryRowContext(ctx, d.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return pool.Snapshot{}, fmt.Errorf("%w: %s", pool.ErrNotFound, key)
	}
	if err != nil {
		return pool.Snapshot{}, fmt.Errorf("querying %s: %w", key, err)
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (pool.Snapshot, error) {
	var (
		ledger                     int64
		asset, asset2              string
		amount1, amount2, lpSupply string
		fee                        int64
	)
	if err := row.Scan(&ledger, &asset, &asset2, &amount1, &amount2, &lpSupply, &fee); err != nil {
		return pool.Snapshot{}, err
	}

	var snap pool.Snapshot
	var err error
	if snap.Asset, err = pool.ParseAsset(asset); err != nil {
		return pool.Snapshot{}, err
	}
	if snap.Asset2, err = pool.ParseAsset(asset2); err != nil {
		return pool.Snapshot{}, err
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&snap.Amount, amount1},
		{&snap.Amount2, amount2},
		{&snap.LPTokenSupply, lpSupply},
	} {
		if *f.dst, err = amount.Parse(f.src); err != nil {
			return pool.Snapshot{}, fmt.Errorf("stored amount: %w", err)
		}
	}
	snap.LedgerIndex = uint32(ledger)
	snap.TradingFee = amount.TradingFee(fee)
	return snap, nil
}

// AtLedger returns a provider that serves the snapshots in effect at ledger.
func (d *DB) AtLedger(ledger uint32) pool.Provider {
	return ledgerView{db: d, ledger: ledger}
}

type ledgerView struct {
	db     *DB
	ledger uint32
}

func (v ledgerView) Snapshot(ctx context.Context, key pool.Key) (pool.Snapshot, error) {
	return v.db.At(ctx, key, v.ledger)
}
