package market

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

//go:embed tickers.txt
var defaultTickers []byte

// Universe is the fixed list of tickers the simulator buys from.
type Universe struct {
	tickers []string
}

// LoadUniverse reads one ticker per line from path, or the embedded NASDAQ
// list when path is empty.
func LoadUniverse(path string) (*Universe, error) {
	if path == "" {
		return ParseUniverse(bytes.NewReader(defaultTickers))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("market: open universe: %w", err)
	}
	defer f.Close()
	return ParseUniverse(f)
}

// ParseUniverse reads one ticker per line. Blank lines and lines starting
// with '#' are skipped; for CSV input only the first column is used.
// Duplicates are dropped, keeping first occurrence order.
func ParseUniverse(r io.Reader) (*Universe, error) {
	var tickers []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		t := strings.ToUpper(strings.Trim(line, `"`))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("market: read universe: %w", err)
	}
	if len(tickers) == 0 {
		return nil, errors.New("market: universe is empty")
	}
	return &Universe{tickers: tickers}, nil
}

// NewUniverse builds a universe from an explicit list.
func NewUniverse(tickers ...string) (*Universe, error) {
	return ParseUniverse(strings.NewReader(strings.Join(tickers, "\n")))
}

func (u *Universe) Len() int { return len(u.tickers) }

// At returns the i-th ticker.
func (u *Universe) At(i int) string { return u.tickers[i] }

// Tickers returns a copy of the list.
func (u *Universe) Tickers() []string { return slices.Clone(u.tickers) }
