package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/ammquote/internal/core/amount"
	"github.com/LeJamon/ammquote/internal/pool"
	"github.com/LeJamon/ammquote/internal/quote"
)

func newDepositCmd(a *app) *cobra.Command {
	opts := &poolOptions{}
	var single, slippage string

	cmd := &cobra.Command{
		Use:   "deposit <lp_tokens>",
		Short: "Quote the assets needed to mint <lp_tokens>",
		Long: `Quote the assets needed to mint <lp_tokens>. Both assets are deposited in
pool proportion unless --single names the one asset to deposit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lp, err := amount.Parse(args[0])
			if err != nil {
				return fmt.Errorf("lp_tokens: %w", err)
			}
			sl, err := parseSlippage(slippage)
			if err != nil {
				return err
			}
			key, err := opts.key()
			if err != nil {
				return err
			}
			req := quote.DepositRequest{Asset: key.Asset, Asset2: key.Asset2, LPTokens: lp, Slippage: sl}
			if single != "" {
				asset, err := pool.ParseAsset(single)
				if err != nil {
					return fmt.Errorf("--single: %w", err)
				}
				req.Single = &asset
			}

			svc, cleanup, err := a.service(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Deposit(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&single, "single", "", "deposit only this asset")
	cmd.Flags().StringVar(&slippage, "slippage", "", "slippage tolerance for single-asset deposits")
	opts.register(cmd)
	return cmd
}
