// Package memory provides in-process implementations of the domain store,
// lock, bus and journal interfaces. State is lost when the process exits.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// LedgerStore implements domain.LedgerStore over maps. Positions are kept in
// their JSON form so callers never share lot slices with the store.
type LedgerStore struct {
	mu        sync.RWMutex
	positions map[string][]byte
	scalars   map[string]string
}

// NewLedgerStore returns an empty store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		positions: make(map[string][]byte),
		scalars:   make(map[string]string),
	}
}

func (s *LedgerStore) GetPosition(_ context.Context, ticker string) (domain.Position, error) {
	s.mu.RLock()
	raw, ok := s.positions[ticker]
	s.mu.RUnlock()
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	var pos domain.Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return domain.Position{}, fmt.Errorf("memory: decode position %s: %w", ticker, err)
	}
	pos.Ticker = ticker
	return pos, nil
}

func (s *LedgerStore) PutPosition(_ context.Context, pos domain.Position) error {
	raw, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("memory: encode position %s: %w", pos.Ticker, err)
	}
	s.mu.Lock()
	s.positions[pos.Ticker] = raw
	s.mu.Unlock()
	return nil
}

func (s *LedgerStore) DeletePosition(_ context.Context, ticker string) error {
	s.mu.Lock()
	delete(s.positions, ticker)
	s.mu.Unlock()
	return nil
}

func (s *LedgerStore) ListTickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	out := make([]string, 0, len(s.positions))
	for t := range s.positions {
		out = append(out, t)
	}
	s.mu.RUnlock()
	slices.Sort(out)
	return out, nil
}

func (s *LedgerStore) GetScalar(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scalars[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *LedgerStore) SetScalar(_ context.Context, name, value string) error {
	s.mu.Lock()
	s.scalars[name] = value
	s.mu.Unlock()
	return nil
}

// Compile-time interface check.
var _ domain.LedgerStore = (*LedgerStore)(nil)
