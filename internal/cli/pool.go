package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/LeJamon/ammquote/internal/pool"
	"github.com/LeJamon/ammquote/internal/storage/snapshotdb"
)

type poolView struct {
	pool.Snapshot
	PoolID string `json:"pool_id"`
}

func newPoolCmd(a *app) *cobra.Command {
	opts := &poolOptions{}
	var save bool
	var history int

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show the current state of a pool",
		Long: `Show the current state of a pool. --save records it in the snapshot
database and --history lists the snapshots recorded there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := opts.key()
			if err != nil {
				return err
			}

			if history > 0 {
				db, err := a.openStore(cmd)
				if err != nil {
					return err
				}
				defer db.Close()
				snaps, err := db.History(ctx, key, history)
				if err != nil {
					return err
				}
				return printJSON(cmd, snaps)
			}

			p, cleanup, err := a.provider(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := p.Snapshot(ctx, key)
			if err != nil {
				return err
			}
			if snap, err = snap.Orient(key.Asset); err != nil {
				return err
			}

			if save {
				db, err := a.openStore(cmd)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.Save(ctx, snap); err != nil {
					return err
				}
			}
			return printJSON(cmd, poolView{Snapshot: snap, PoolID: key.ID()})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "record the snapshot in the snapshot database")
	cmd.Flags().IntVar(&history, "history", 0, "list up to this many recorded snapshots instead")
	opts.register(cmd)
	return cmd
}

func (a *app) openStore(cmd *cobra.Command) (*snapshotdb.DB, error) {
	if !a.config.Store.Enabled() {
		return nil, errors.New("no snapshot database configured (store.driver)")
	}
	return snapshotdb.Open(cmd.Context(), a.config.Store.Database())
}
