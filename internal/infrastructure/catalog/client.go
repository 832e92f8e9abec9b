package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
)

// Default client settings
const (
	DefaultPerPage     = 200
	DefaultConcurrency = 4
	DefaultMaxPages    = 500
	DefaultTimeout     = 30 * time.Second
)

// ErrPageCapReached is returned when the catalog still reports more pages
// after MaxPages have been read.
var ErrPageCapReached = errors.New("catalog: page cap reached")

// Config holds catalog API settings
type Config struct {
	BaseURL        string
	OrganizationID string
	AuthScheme     string // "Bearer" when empty
	PerPage        int
	Concurrency    int // pages fetched in parallel per window
	MaxPages       int
	Timeout        time.Duration
	RetryCount     int
	RetryWait      time.Duration
}

func (c *Config) applyDefaults() {
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	if c.PerPage <= 0 {
		c.PerPage = DefaultPerPage
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryWait <= 0 {
		c.RetryWait = 500 * time.Millisecond
	}
}

// Client reads the item catalog over HTTP
type Client struct {
	cfg    Config
	http   *resty.Client
	tokens TokenSource
	logger *zap.Logger
}

// NewClient creates a catalog client
func NewClient(cfg Config, tokens TokenSource, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("catalog: base URL is required")
	}
	if tokens == nil {
		return nil, errors.New("catalog: token source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetAuthScheme(cfg.AuthScheme).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{cfg: cfg, http: httpClient, tokens: tokens, logger: logger}, nil
}

// FetchAll walks the catalog page by page. Each window of Concurrency pages
// is fetched in parallel; the walk stops at the first page, in page order,
// that reports no further pages. Failures of pages past that one are ignored.
func (c *Client) FetchAll(ctx context.Context) ([]printing.CatalogItem, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var items []printing.CatalogItem
	for first := 1; first <= c.cfg.MaxPages; first += c.cfg.Concurrency {
		last := min(first+c.cfg.Concurrency-1, c.cfg.MaxPages)
		for i, res := range c.fetchWindow(ctx, token, first, last) {
			if res.err != nil {
				return nil, res.err
			}
			items = append(items, res.page.toDomain()...)
			if !res.page.PageContext.HasMorePage {
				c.logger.Debug("catalog fetched",
					zap.Int("pages", first+i),
					zap.Int("items", len(items)))
				return items, nil
			}
		}
	}
	return nil, fmt.Errorf("%w after %d pages", ErrPageCapReached, c.cfg.MaxPages)
}

type pageResult struct {
	page *itemsPage
	err  error
}

// fetchWindow fetches pages first..last. A failed page keeps its error in its
// slot and does not cancel its siblings.
func (c *Client) fetchWindow(ctx context.Context, token string, first, last int) []pageResult {
	results := make([]pageResult, last-first+1)
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for n := first; n <= last; n++ {
		g.Go(func() error {
			p, err := c.fetchPage(ctx, token, n)
			results[n-first] = pageResult{page: p, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) fetchPage(ctx context.Context, token string, page int) (*itemsPage, error) {
	params := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(c.cfg.PerPage),
	}
	if c.cfg.OrganizationID != "" {
		params["organization_id"] = c.cfg.OrganizationID
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params).
		SetResult(&itemsPage{}).
		Get("/items")
	op := fmt.Sprintf("catalog page %d", page)
	if err != nil {
		return nil, shared.NewUpstreamError(op, err)
	}
	if resp.IsError() {
		if resp.StatusCode() == http.StatusUnauthorized {
			if inv, ok := c.tokens.(invalidator); ok {
				inv.Invalidate()
			}
		}
		return nil, shared.NewUpstreamError(op, fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(resp.String(), 200)))
	}

	result, ok := resp.Result().(*itemsPage)
	if !ok || result == nil {
		return nil, shared.NewUpstreamError(op, errors.New("unexpected response body"))
	}
	return result, nil
}

type itemsPage struct {
	Items       []itemRecord `json:"items"`
	PageContext struct {
		HasMorePage bool `json:"has_more_page"`
	} `json:"page_context"`
}

type itemRecord struct {
	ItemID text `json:"item_id"`
	SKU    text `json:"sku"`
	Name   text `json:"name"`
	Status text `json:"status"`
	Rate   text `json:"rate"`
}

func (p itemsPage) toDomain() []printing.CatalogItem {
	out := make([]printing.CatalogItem, 0, len(p.Items))
	for _, r := range p.Items {
		out = append(out, printing.CatalogItem{
			ItemID: strings.TrimSpace(string(r.ItemID)),
			SKU:    strings.TrimSpace(string(r.SKU)),
			Name:   string(r.Name),
			Status: string(r.Status),
			Rate:   string(r.Rate),
		})
	}
	return out
}

// text accepts a JSON string, number or null. The catalog is not consistent
// about quoting ids and rates.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*t = text(n.String())
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ printing.CatalogSource = (*Client)(nil)
