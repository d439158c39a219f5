// Package websearch queries DuckDuckGo's HTML endpoint and fetches a text
// preview of every result page.
package websearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/starford/applebridge/internal/apperr"
	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
)

// Defaults.
const (
	DefaultEndpoint      = "https://html.duckduckgo.com/html/"
	DefaultLocale        = "us-en"
	DefaultUserAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultMaxResults    = 5
	DefaultPreviewLength = 500
	DefaultSearchTimeout = 30 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
	DefaultConcurrency   = 5

	// ContentUnavailable is the preview of a page that could not be fetched.
	ContentUnavailable = "Content not available"

	maxPageBytes = 2 << 20
)

// Client runs web searches.
type Client struct {
	http          *http.Client
	endpoint      string
	locale        string
	userAgent     string
	maxResults    int
	previewLength int
	concurrency   int
	searchTimeout time.Duration
	fetchTimeout  time.Duration
	keepUnfetched bool
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithEndpoint sets the results page URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithLocale sets the kl region parameter.
func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = locale }
}

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxResults caps the number of results returned.
func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

// WithPreviewLength sets the number of characters kept from each page.
func WithPreviewLength(n int) Option {
	return func(c *Client) { c.previewLength = n }
}

// WithConcurrency bounds concurrent page fetches.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

// WithTimeouts sets the results page and per-page fetch timeouts.
func WithTimeouts(search, fetch time.Duration) Option {
	return func(c *Client) {
		c.searchTimeout = search
		c.fetchTimeout = fetch
	}
}

// WithKeepUnfetched keeps results whose page fetch failed, with
// ContentUnavailable as content.
func WithKeepUnfetched(keep bool) Option {
	return func(c *Client) { c.keepUnfetched = keep }
}

// WithMinInterval spaces consecutive searches by at least d. Zero disables limiting.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:          &http.Client{},
		endpoint:      DefaultEndpoint,
		locale:        DefaultLocale,
		userAgent:     DefaultUserAgent,
		maxResults:    DefaultMaxResults,
		previewLength: DefaultPreviewLength,
		concurrency:   DefaultConcurrency,
		searchTimeout: DefaultSearchTimeout,
		fetchTimeout:  DefaultFetchTimeout,
		limiter:       rate.NewLimiter(rate.Inf, 1),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	return c
}

type queryParam struct {
	Query string
}

func (p queryParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Query, validation.Required.Error("query is required")),
	)
}

// Search returns up to the configured number of results for query, each
// with a preview of its page. Results keep the order of the results page.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if err := (queryParam{Query: query}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrExecution, err)
	}

	page, err := c.resultsPage(ctx, query)
	if err != nil {
		c.logger.Warn("web search failed", slog.String("query", query), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", apperr.ErrExecution, err)
	}
	results := ParseResults(page, c.maxResults)

	fetched := make([]bool, len(results))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range results {
		g.Go(func() error {
			text, err := c.fetchPage(gCtx, results[i].URL)
			if err != nil {
				c.logger.Debug("page fetch failed",
					slog.String("url", results[i].URL),
					slog.String("error", err.Error()))
				results[i].Content = ContentUnavailable
				return nil
			}
			results[i].Content = bridge.Truncate(text, c.previewLength)
			fetched[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.SearchResult, 0, len(results))
	for i, r := range results {
		if fetched[i] || c.keepUnfetched {
			out = append(out, r)
		}
	}
	return out, nil
}

// SearchSync runs Search with a background context.
func (c *Client) SearchSync(query string) ([]models.SearchResult, error) {
	return c.Search(context.Background(), query)
}

func (c *Client) resultsPage(ctx context.Context, query string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("kl", c.locale)
	u.RawQuery = q.Encode()

	return c.get(ctx, u.String())
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return VisibleText(body), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return body, nil
}
