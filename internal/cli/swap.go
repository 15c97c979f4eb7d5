package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/ammquote/internal/core/amount"
	"github.com/LeJamon/ammquote/internal/quote"
)

func newSwapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote a swap of --asset for --asset2",
	}
	cmd.AddCommand(newSwapQuoteCmd(a, false), newSwapQuoteCmd(a, true))
	return cmd
}

func newSwapQuoteCmd(a *app, exactOutput bool) *cobra.Command {
	opts := &poolOptions{}
	var slippage string

	cmd := &cobra.Command{
		Use:   "in <amount>",
		Short: "Quote the --asset2 received for selling <amount> of --asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := amount.Parse(args[0])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			sl, err := parseSlippage(slippage)
			if err != nil {
				return err
			}
			key, err := opts.key()
			if err != nil {
				return err
			}

			svc, cleanup, err := a.service(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Swap(cmd.Context(), quote.SwapRequest{
				Sell:        key.Asset,
				Buy:         key.Asset2,
				ExactOutput: exactOutput,
				Amount:      amt,
				Slippage:    sl,
			})
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	if exactOutput {
		cmd.Use = "out <amount>"
		cmd.Short = "Quote the --asset to sell to receive <amount> of --asset2"
		cmd.Flags().StringVar(&slippage, "slippage", "", "slippage tolerance as a fraction (default quote.default_slippage)")
	}
	opts.register(cmd)
	return cmd
}
