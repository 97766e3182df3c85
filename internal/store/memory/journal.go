package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// TradeJournal implements domain.TradeJournal as a bounded in-memory list.
type TradeJournal struct {
	mu      sync.RWMutex
	records []domain.TradeRecord
	max     int
}

// NewTradeJournal keeps at most max records; max <= 0 means 1000.
func NewTradeJournal(max int) *TradeJournal {
	if max <= 0 {
		max = 1000
	}
	return &TradeJournal{max: max}
}

func (j *TradeJournal) Record(_ context.Context, rec domain.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	if over := len(j.records) - j.max; over > 0 {
		j.records = append(j.records[:0:0], j.records[over:]...)
	}
	return nil
}

func (j *TradeJournal) Recent(_ context.Context, limit int) ([]domain.TradeRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	n := len(j.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.TradeRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, j.records[i])
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.TradeJournal = (*TradeJournal)(nil)
