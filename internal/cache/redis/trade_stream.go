package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// tradeStreamMaxLen bounds the journal stream via XADD MAXLEN ~.
const tradeStreamMaxLen int64 = 10000

// TradeStream implements domain.TradeJournal on a Redis stream, one JSON
// entry per trade. It is the journal when Postgres is not configured.
type TradeStream struct {
	rdb    *redis.Client
	stream string
}

// NewTradeStream creates a journal on the "trades:journal" stream.
func NewTradeStream(c *Client) *TradeStream {
	return &TradeStream{rdb: c.Underlying(), stream: c.Key("trades:journal")}
}

func (ts *TradeStream) Record(ctx context.Context, rec domain.TradeRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: encode trade %s: %w", rec.ID, err)
	}
	args := &redis.XAddArgs{
		Stream: ts.stream,
		MaxLen: tradeStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := ts.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: record trade %s: %w", rec.ID, err)
	}
	return nil
}

// Recent reads the stream backwards. Entries that fail to decode are skipped.
func (ts *TradeStream) Recent(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	msgs, err := ts.rdb.XRevRangeN(ctx, ts.stream, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: recent trades: %w", err)
	}

	out := make([]domain.TradeRecord, 0, len(msgs))
	for _, msg := range msgs {
		var data []byte
		switch v := msg.Values["payload"].(type) {
		case string:
			data = []byte(v)
		case []byte:
			data = v
		default:
			continue
		}
		var rec domain.TradeRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.TradeJournal = (*TradeStream)(nil)
