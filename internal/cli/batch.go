package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/ammquote/internal/quote"
)

func newBatchCmd(a *app) *cobra.Command {
	opts := &poolOptions{}

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Quote every request in a JSON file",
		Long: `Quote every request in a JSON file ("-" reads stdin). The file holds an
array of requests, each with one of "swap", "deposit" or "withdraw".
Rejected quotes are reported in place; a pool source failure stops the batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := readRequests(cmd, args[0])
			if err != nil {
				return err
			}

			svc, cleanup, err := a.service(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := svc.Batch(cmd.Context(), reqs)
			if err != nil {
				return err
			}
			return printJSON(cmd, results)
		},
	}
	opts.register(cmd)
	return cmd
}

func readRequests(cmd *cobra.Command, path string) ([]quote.Request, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening requests: %w", err)
		}
		defer f.Close()
		r = f
	}

	var reqs []quote.Request
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decoding requests: %w", err)
	}
	return reqs, nil
}
