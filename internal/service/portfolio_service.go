package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/dailytrader/internal/domain"
	"github.com/alanyoungcy/dailytrader/internal/portfolio"
)

// ResetConfirmation must be passed verbatim to Reset.
const ResetConfirmation = "YES"

// ErrSnapshotsDisabled is returned by snapshot operations without a blob
// store.
var ErrSnapshotsDisabled = errors.New("snapshots disabled")

// PortfolioService renders and maintains the ledger.
type PortfolioService struct {
	ledger         *portfolio.Ledger
	prices         portfolio.PriceLookup
	snapshots      domain.BlobReader
	snapshotPrefix string
	logger         *slog.Logger
}

// NewPortfolioService creates a PortfolioService. snapshots may be nil when
// backups are disabled.
func NewPortfolioService(
	ledger *portfolio.Ledger,
	prices portfolio.PriceLookup,
	snapshots domain.BlobReader,
	snapshotPrefix string,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		ledger:         ledger,
		prices:         prices,
		snapshots:      snapshots,
		snapshotPrefix: snapshotPrefix,
		logger:         logger.With(slog.String("component", "portfolio_service")),
	}
}

// Portfolio renders the ledger without prices.
func (s *PortfolioService) Portfolio(ctx context.Context) (string, error) {
	return s.ledger.Summary(ctx)
}

// PortfolioWithValue renders the ledger at current market prices.
func (s *PortfolioService) PortfolioWithValue(ctx context.Context) (string, error) {
	return s.ledger.SummaryWithValue(ctx, s.prices)
}

// CashFlow renders the cash flow line.
func (s *PortfolioService) CashFlow(ctx context.Context) (string, error) {
	return s.ledger.CashFlowLine(ctx)
}

// Value prices the ledger.
func (s *PortfolioService) Value(ctx context.Context) (portfolio.Valuation, error) {
	return s.ledger.Value(ctx, s.prices)
}

// Reset wipes the ledger when confirmation is exactly "YES". Any other
// confirmation is a no-op reported as false.
func (s *PortfolioService) Reset(ctx context.Context, confirmation string) (bool, error) {
	if confirmation != ResetConfirmation {
		return false, nil
	}
	if err := s.ledger.Reset(ctx); err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "portfolio reset")
	return true, nil
}

// Snapshots lists the stored ledger snapshots.
func (s *PortfolioService) Snapshots(ctx context.Context) ([]domain.BlobInfo, error) {
	if s.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}
	prefix := s.snapshotPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	infos, err := s.snapshots.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: list snapshots: %w", err)
	}
	return infos, nil
}

// RestoreSnapshot replaces the ledger with the snapshot taken on day
// (YYYY-MM-DD).
func (s *PortfolioService) RestoreSnapshot(ctx context.Context, day string) error {
	if s.snapshots == nil {
		return ErrSnapshotsDisabled
	}
	d, err := domain.ParseDate(day)
	if err != nil {
		return fmt.Errorf("portfolio_service: restore: %w", err)
	}
	key := SnapshotKey(s.snapshotPrefix, d)

	rc, err := s.snapshots.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("portfolio_service: restore %s: %w", key, err)
	}
	defer rc.Close()

	var snap portfolio.Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("portfolio_service: decode %s: %w", key, err)
	}
	if err := s.ledger.Restore(ctx, snap); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "portfolio restored",
		slog.String("snapshot", key),
		slog.Int("positions", len(snap.Positions)),
	)
	return nil
}
