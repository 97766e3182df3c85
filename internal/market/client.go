package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// ClientConfig describes a JSON quote endpoint.
type ClientConfig struct {
	// QuoteURL is a URL template; {ticker} and {api_key} are substituted.
	QuoteURL string
	APIKey   string
	// ResultPath selects the quote object in the response, e.g.
	// "$.quoteResponse.result[0]". Empty means the whole document.
	ResultPath string
	// Fields maps metric names to JSONPath expressions relative to the
	// quote object.
	Fields    map[string]string
	Timeout   time.Duration
	UserAgent string
}

// Client is the REST client for the configured quote provider.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a quote client. A nil httpClient gets one with
// cfg.Timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Quote fetches ticker and extracts every configured metric. Metrics the
// provider did not return are left out of Details.
func (c *Client) Quote(ctx context.Context, ticker string) (Quote, error) {
	ticker, details, err := c.fetch(ctx, ticker)
	if err != nil {
		return Quote{}, err
	}
	q, err := quoteFromDetails(ticker, details)
	if err != nil {
		return q, fmt.Errorf("market: quote %s: %w", ticker, err)
	}
	return q, nil
}

// Price fetches ticker and returns its current price. Unlike Quote it does
// not require a company name.
func (c *Client) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	ticker, details, err := c.fetch(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := priceFromDetails(details)
	if err != nil {
		return decimal.Zero, fmt.Errorf("market: price %s: %w", ticker, err)
	}
	return price, nil
}

// fetch requests the normalised ticker and evaluates the configured fields.
func (c *Client) fetch(ctx context.Context, ticker string) (string, map[string]any, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", nil, fmt.Errorf("market: quote: empty ticker: %w", domain.ErrNotFound)
	}

	body, err := c.doGet(ctx, c.quoteURL(ticker))
	if err != nil {
		return ticker, nil, fmt.Errorf("market: quote %s: %w", ticker, err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return ticker, nil, fmt.Errorf("market: decode quote %s: %w", ticker, err)
	}

	obj := doc
	if c.cfg.ResultPath != "" {
		obj, err = lookupPath(c.cfg.ResultPath, doc)
		if err != nil || obj == nil {
			return ticker, nil, fmt.Errorf("market: quote %s: %w", ticker, domain.ErrNotFound)
		}
	}

	details := make(map[string]any, len(c.cfg.Fields))
	for name, path := range c.cfg.Fields {
		v, err := lookupPath(path, obj)
		if err != nil || v == nil {
			continue
		}
		details[name] = v
	}
	return ticker, details, nil
}

func (c *Client) quoteURL(ticker string) string {
	return strings.NewReplacer(
		"{ticker}", url.QueryEscape(ticker),
		"{api_key}", url.QueryEscape(c.cfg.APIKey),
	).Replace(c.cfg.QuoteURL)
}

// lookupPath evaluates a JSONPath expression. Single-element results come
// back as lists from filter and slice expressions; those are unwrapped.
func lookupPath(path string, doc any) (any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, nil
		}
		if len(list) == 1 {
			return list[0], nil
		}
	}
	return v, nil
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	if len(bodyStr) > 256 {
		bodyStr = bodyStr[:256]
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
