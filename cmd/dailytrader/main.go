// Command dailytrader runs the daily stock-trading simulation bot. The run
// command starts the scheduler and HTTP server; the remaining commands operate
// on the shared ledger once and exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/dailytrader/internal/app"
	"github.com/alanyoungcy/dailytrader/internal/config"
)

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dailytrader",
		Short: "Daily stock-trading simulation bot",
		Long: `dailytrader buys or sells one share of a random NASDAQ stock once per
trading day and keeps a running ledger of holdings and net cash flow.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml",
		"path to configuration file (empty: defaults and environment only)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(tradeCmd())
	rootCmd.AddCommand(buyCmd())
	rootCmd.AddCommand(sellCmd())
	rootCmd.AddCommand(portfolioCmd())
	rootCmd.AddCommand(cashflowCmd())
	rootCmd.AddCommand(stockCmd())
	rootCmd.AddCommand(priceCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(snapshotsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseLevel maps a config log level to slog.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads and validates the configuration and installs the JSON
// logger. Logs go to stderr so command output stays clean on stdout.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withServices wires the application for a one-shot command and tears it
// down afterwards.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Services) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger)
	defer application.Close()

	svc, err := application.Services(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler and HTTP server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Info("daily trader starting",
				slog.String("config", configPath),
				slog.Any("settings", config.RedactedConfig(cfg)),
			)

			application := app.New(cfg, logger)
			defer application.Close()

			// Setup signal handling for graceful shutdown.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("application exited with error", slog.String("error", err.Error()))
				return err
			}
			logger.Info("daily trader stopped")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dailytrader version %s\n", version)
		},
	}
}
