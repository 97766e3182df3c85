package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

const (
	positionPrefix = "stock:"
	scanBatch      = 100
)

// LedgerStore implements domain.LedgerStore with one string key per held
// ticker ("stock:<TICKER>", JSON) and one string key per scalar.
type LedgerStore struct {
	c   *Client
	rdb *redis.Client
}

// NewLedgerStore creates a LedgerStore backed by the given Client.
func NewLedgerStore(c *Client) *LedgerStore {
	return &LedgerStore{c: c, rdb: c.Underlying()}
}

func (s *LedgerStore) positionKey(ticker string) string {
	return s.c.Key(positionPrefix + ticker)
}

// GetPosition returns domain.ErrNotFound when the key does not exist.
func (s *LedgerStore) GetPosition(ctx context.Context, ticker string) (domain.Position, error) {
	raw, err := s.rdb.Get(ctx, s.positionKey(ticker)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Position{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("redis: get position %s: %w", ticker, err)
	}
	var pos domain.Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return domain.Position{}, fmt.Errorf("redis: decode position %s: %w", ticker, err)
	}
	pos.Ticker = ticker
	return pos, nil
}

func (s *LedgerStore) PutPosition(ctx context.Context, pos domain.Position) error {
	raw, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("redis: encode position %s: %w", pos.Ticker, err)
	}
	if err := s.rdb.Set(ctx, s.positionKey(pos.Ticker), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis: put position %s: %w", pos.Ticker, err)
	}
	return nil
}

func (s *LedgerStore) DeletePosition(ctx context.Context, ticker string) error {
	if err := s.rdb.Del(ctx, s.positionKey(ticker)).Err(); err != nil {
		return fmt.Errorf("redis: delete position %s: %w", ticker, err)
	}
	return nil
}

// ListTickers walks the "stock:" prefix with SCAN so large keyspaces do not
// block the server.
func (s *LedgerStore) ListTickers(ctx context.Context) ([]string, error) {
	prefix := s.positionKey("")
	match := escapeGlob(prefix) + "*"

	var tickers []string
	iter := s.rdb.Scan(ctx, 0, match, scanBatch).Iterator()
	for iter.Next(ctx) {
		tickers = append(tickers, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: list tickers: %w", err)
	}
	// SCAN may return a key more than once.
	slices.Sort(tickers)
	return slices.Compact(tickers), nil
}

// GetScalar returns domain.ErrNotFound when the key does not exist.
func (s *LedgerStore) GetScalar(ctx context.Context, name string) (string, error) {
	v, err := s.rdb.Get(ctx, s.c.Key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %s: %w", name, err)
	}
	return v, nil
}

func (s *LedgerStore) SetScalar(ctx context.Context, name, value string) error {
	if err := s.rdb.Set(ctx, s.c.Key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", name, err)
	}
	return nil
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Compile-time interface check.
var _ domain.LedgerStore = (*LedgerStore)(nil)
