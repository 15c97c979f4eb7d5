package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/ammquote/internal/config"
	"github.com/LeJamon/ammquote/internal/core/amm"
)

const version = "0.1.0-dev"

// app holds what every command needs once flags and config are resolved.
type app struct {
	config *config.Config
	logger *zap.Logger
	calc   *amm.Calculator
}

type rootOptions struct {
	configFile string
	logLevel   string
	nodeURL    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   "ammquote",
		Short: "ammquote - XRPL AMM pricing and liquidity estimates",
		Long: `ammquote prices swaps, deposits and withdrawals against XRP Ledger AMM
pools. Pools come from an XRPL node, a snapshot database, or flags.
Quotes are estimates; nothing is signed or submitted.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "conf", "", "configuration file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.nodeURL, "node", "", "XRPL node WebSocket URL")

	cmd.AddCommand(
		newSwapCmd(a),
		newDepositCmd(a),
		newWithdrawCmd(a),
		newPoolCmd(a),
		newBatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if cmd.Flags().Changed("node") {
		cfg.Node.URL = opts.nodeURL
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	params, err := cfg.Engine.Params()
	if err != nil {
		return err
	}
	calc, err := amm.NewCalculator(params)
	if err != nil {
		return err
	}

	a.config, a.logger, a.calc = cfg, logger, calc
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
