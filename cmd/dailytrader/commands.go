package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/dailytrader/internal/app"
	"github.com/alanyoungcy/dailytrader/internal/portfolio"
	"github.com/alanyoungcy/dailytrader/internal/service"
)

func tradeCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Attempt today's daily trade",
		Long: `trade runs the gated daily trade: at most one trade per trading day, and
only inside the configured trading window. --force skips both checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				out, err := svc.Trades.TryDailyTrade(ctx, force)
				if err != nil {
					return err
				}
				if !out.Traded {
					fmt.Fprintf(cmd.OutOrStdout(), "No trade: %s\n", out.Reason)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "trade regardless of the day and window checks")
	return cmd
}

func buyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy",
		Short: "Buy one share of a random stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				res, err := svc.Trades.Buy(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
}

func sellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell",
		Short: "Sell the oldest share of a random holding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				res, err := svc.Trades.Sell(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
}

func portfolioCmd() *cobra.Command {
	var withValue bool
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show holdings and net cash flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				render := svc.Portfolio.Portfolio
				if withValue {
					render = svc.Portfolio.PortfolioWithValue
				}
				text, err := render(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withValue, "value", false, "price every holding at the current market price")
	return cmd
}

func cashflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cashflow",
		Short: "Show the net cash flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				text, err := svc.Portfolio.CashFlow(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func stockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stock TICKER",
		Short: "Show company details for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				text, err := svc.Market.StockInfo(ctx, args[0])
				if errors.Is(err, service.ErrInvalidTicker) {
					fmt.Fprintln(cmd.OutOrStdout(), service.InvalidTickerMessage)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price TICKER",
		Short: "Show the current price of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				text, err := svc.Market.PriceMessage(ctx, args[0])
				if errors.Is(err, service.ErrInvalidTicker) {
					fmt.Fprintln(cmd.OutOrStdout(), service.InvalidTickerMessage)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset CONFIRMATION",
		Short: "Erase the ledger (CONFIRMATION must be YES)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				ok, err := svc.Portfolio.Reset(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Portfolio not reset; pass %s to confirm.\n", service.ResetConfirmation)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Portfolio reset.")
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent trades from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				recs, err := svc.Deps.Journal.Recent(ctx, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DAY\tACTION\tTICKER\tPRICE\tNET\tCASHFLOW")
				for _, r := range recs {
					net := "-"
					if r.DaysHeld > 0 || !r.NetCash.IsZero() {
						net = portfolio.FormatNumber(r.NetCash, true, true)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						r.TradingDay, r.Action, r.Ticker,
						portfolio.FormatNumber(r.Price, true, false), net,
						portfolio.FormatNumber(r.CashFlow, true, true),
					)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of trades to list")
	return cmd
}

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage ledger snapshots in object storage",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				infos, err := svc.Portfolio.Snapshots(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Path, info.Size, info.LastModified.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore YYYY-MM-DD",
		Short: "Replace the ledger with the snapshot of the given day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				if err := svc.Portfolio.RestoreSnapshot(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ledger restored from %s.\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, restoreCmd)
	return cmd
}
