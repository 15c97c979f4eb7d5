package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/ammquote/internal/core/amount"
	"github.com/LeJamon/ammquote/internal/pool"
	"github.com/LeJamon/ammquote/internal/quote"
)

func newWithdrawCmd(a *app) *cobra.Command {
	opts := &poolOptions{}
	var single, take, slippage string

	cmd := &cobra.Command{
		Use:   "withdraw [lp_tokens]",
		Short: "Quote the assets returned for burning LP tokens",
		Long: `Quote the assets returned for burning [lp_tokens]. With --single only that
asset is withdrawn; --take instead asks how many LP tokens must be burned
to withdraw the given amount of the --single asset.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := opts.key()
			if err != nil {
				return err
			}
			sl, err := parseSlippage(slippage)
			if err != nil {
				return err
			}
			req := quote.WithdrawRequest{Asset: key.Asset, Asset2: key.Asset2, Slippage: sl}

			switch {
			case len(args) == 1 && take != "":
				return errors.New("pass either lp_tokens or --take")
			case len(args) == 1:
				if req.LPTokens, err = amount.Parse(args[0]); err != nil {
					return fmt.Errorf("lp_tokens: %w", err)
				}
			case take != "":
				if single == "" {
					return errors.New("--take needs --single")
				}
				if req.Amount, err = amount.Parse(take); err != nil {
					return fmt.Errorf("--take: %w", err)
				}
			default:
				return errors.New("pass lp_tokens or --take")
			}
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

			res, err := svc.Withdraw(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&single, "single", "", "withdraw only this asset")
	cmd.Flags().StringVar(&take, "take", "", "amount of the --single asset to withdraw")
	cmd.Flags().StringVar(&slippage, "slippage", "", "slippage tolerance as a fraction (default quote.default_slippage)")
	opts.register(cmd)
	return cmd
}
