package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/cappu/internal/config"
	"github.com/Mohsinsiddi/cappu/internal/logging"
	"github.com/Mohsinsiddi/cappu/internal/telemetry"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/cappu/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir     string
	cfg        *config.Config
	verbose    bool
	rpcFlag    string
	walletFlag string
)

var (
	logger        = zap.NewNop()
	traceShutdown telemetry.ShutdownFunc
)

// rootCmd is the top-level command. Without a sub-command it opens the sale screen.
var rootCmd = &cobra.Command{
	Use:   "cappu",
	Short: "Terminal client for the StarDucks Cappucino token sale",
	Long: `cappu: buy, burn and whitelist CAPPU tokens from your terminal.

  Connects to an EVM node, finds the MyToken, MyTokenSale and KycContract
  deployments for the node's network id and keeps your balance and the
  total supply up to date as Transfer and TokensPurchased events arrive.

Settings come from ~/.cappu/config.json, then CAPPU_* environment
variables, then flags. Live updates need a ws:// or IPC endpoint.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runSale,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	teardown()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// CAPPU_CONFIG_DIR env var overrides the --config default.
	if envDir := os.Getenv("CAPPU_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.cappu)")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "node endpoint, overrides config (ws://, http:// or IPC path)")
	rootCmd.PersistentFlags().StringVar(&walletFlag, "wallet", "", "wallet that signs transactions, overrides config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")

	rootCmd.AddCommand(
		runCmd,
		statusCmd,
		whitelistCmd,
		buyCmd,
		burnCmd,
		deploymentsCmd,
		walletCmd,
	)
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	var err error
	cfg, err = config.Load(cfgDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlags(cfg)

	if logger, err = logging.New(cfg.LogFile, verbose); err != nil {
		return err
	}
	if traceShutdown, err = telemetry.Setup(cmd.Context(), cfg.OTLPEndpoint, "cappu"); err != nil {
		return err
	}
	logger.Debug("config loaded",
		zap.String("dir", cfg.Dir()),
		zap.String("rpc", cfg.RPCURL),
		zap.String("wallet", cfg.Wallet),
		zap.String("artifacts", cfg.ArtifactsDir))
	return nil
}

// applyFlags lets non-empty flags win over file and environment values.
func applyFlags(c *config.Config) {
	if rpcFlag != "" {
		c.RPCURL = rpcFlag
	}
	if walletFlag != "" {
		c.Wallet = walletFlag
	}
}

func teardown() {
	if traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := traceShutdown(ctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}
	logger.Sync() //nolint:errcheck
}
