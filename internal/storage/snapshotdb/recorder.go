package snapshotdb

import (
	"context"

	"go.uber.org/zap"

	"github.com/LeJamon/ammquote/internal/pool"
)

// Recorder saves every snapshot it fetches from another provider. A failed
// save is logged and does not fail the fetch.
type Recorder struct {
	next   pool.Provider
	db     *DB
	logger *zap.Logger
}

func NewRecorder(next pool.Provider, db *DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{next: next, db: db, logger: logger}
}

func (r *Recorder) Snapshot(ctx context.Context, key pool.Key) (pool.Snapshot, error) {
	snap, err := r.next.Snapshot(ctx, key)
	if err != nil {
		return pool.Snapshot{}, err
	}
	if err := r.db.Save(ctx, snap); err != nil {
		r.logger.Warn("failed to record snapshot",
			zap.String("pool", key.ID()),
			zap.Uint32("ledger_index", snap.LedgerIndex),
			zap.Error(err))
	}
	return snap, nil
}
