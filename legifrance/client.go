// Package legifrance implements catleg.Backend on top of the Legifrance API
// of the PISTE gateway.
package legifrance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/catleg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// API endpoints, relative to Config.APIURL.
const (
	endpointArticle  = "consult/getArticle"
	endpointDecision = "consult/juri"
	endpointTOC      = "consult/legi/tableMatieres"
	endpointJORF     = "consult/jorf"
	endpointCodes    = "list/code"
)

// codesPageSize is the page size used to list codes.
const codesPageSize = 20

var (
	_ catleg.Backend    = (*Client)(nil)
	_ catleg.RawQuerier = (*Client)(nil)
)

// Client retrieves law texts from Legifrance.
//
// Requests are authenticated with an OAuth2 client-credentials token that is
// fetched on first use and shared by all requests until it expires. All
// requests go through a single rate limiter.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	delays  []time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*options)

type options struct {
	base   *http.Client
	delays []time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// WithHTTPClient sets the HTTP client used for token and API requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.base = c }
}

// WithRetryDelays sets the backoff delays for transient failures.
// Defaults to DefaultRetryDelays.
func WithRetryDelays(delays []time.Duration) Option {
	return func(o *options) { o.delays = delays }
}

// WithLogger sets the logger reporting retries.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNow sets the clock giving the date of tables of contents.
func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewClient creates a Client. The configuration must carry valid credentials.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		base:   http.DefaultClient,
		delays: DefaultRetryDelays(),
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"openid"},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// The token source is reused for the life of the client; it refreshes
	// the token under a lock when it expires.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, o.base)
	transport := &oauth2.Transport{
		Source: cc.TokenSource(tokenCtx),
		Base:   o.base.Transport,
	}

	burst := int(math.Ceil(cfg.RequestsPerSecond))
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		delays:  o.delays,
		logger:  o.logger,
		now:     o.now,
	}, nil
}

// Article implements catleg.Backend.
func (c *Client) Article(ctx context.Context, id catleg.ArticleID) (*catleg.ReferenceArticle, error) {
	raw, err := c.RawArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	return parseArticle(raw, id)
}

// Articles implements catleg.Backend. Articles are fetched concurrently, at
// most Config.MaxConcurrency at a time.
func (c *Client) Articles(ctx context.Context, ids []catleg.ArticleID) ([]*catleg.ReferenceArticle, error) {
	articles := make([]*catleg.ReferenceArticle, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			a, err := c.Article(gctx, id)
			if errors.Is(err, catleg.ErrArticleNotFound) {
				return nil
			} else if err != nil {
				return fmt.Errorf("article %s: %w", id, err)
			}
			articles[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return articles, nil
}

// TableOfContents implements catleg.Backend.
func (c *Client) TableOfContents(ctx context.Context, textID string) (*catleg.TOC, error) {
	raw, err := c.RawTableOfContents(ctx, textID)
	if err != nil {
		return nil, err
	}
	return parseTOC(raw, textID)
}

// PublishedText implements catleg.Backend.
func (c *Client) PublishedText(ctx context.Context, textID string) (*catleg.TOC, error) {
	if !catleg.IsPublishedTextID(textID) {
		return nil, catleg.ErrInvalidIdentifier.Errorf("expected an official journal text identifier (JORFTEXT), got %q", textID)
	}
	raw, err := c.post(ctx, endpointJORF, map[string]any{"textCid": strings.ToUpper(textID)})
	if err != nil {
		return nil, err
	}
	return parseTOC(raw, textID)
}

// RawArticle implements catleg.RawQuerier.
func (c *Client) RawArticle(ctx context.Context, id catleg.ArticleID) (json.RawMessage, error) {
	switch id.Authority {
	case catleg.LEGIARTI, catleg.JORFARTI:
		return c.post(ctx, endpointArticle, map[string]any{"id": id.String()})
	case catleg.CETATEXT:
		return c.post(ctx, endpointDecision, map[string]any{"textId": id.String()})
	}
	return nil, catleg.ErrUnsupportedAuthority.Errorf("unsupported article authority %q", id.Authority)
}

// RawTableOfContents implements catleg.RawQuerier.
func (c *Client) RawTableOfContents(ctx context.Context, textID string) (json.RawMessage, error) {
	return c.post(ctx, endpointTOC, map[string]any{
		"textId": textID,
		"date":   c.now().Format(time.DateOnly),
	})
}

// RawCodes implements catleg.RawQuerier. It lists the codes in force,
// following pagination.
func (c *Client) RawCodes(ctx context.Context) (json.RawMessage, error) {
	type page struct {
		TotalResultNumber int               `json:"totalResultNumber"`
		Results           []json.RawMessage `json:"results"`
	}

	var all page
	for n := 1; ; n++ {
		raw, err := c.post(ctx, endpointCodes, map[string]any{
			"pageSize":   codesPageSize,
			"pageNumber": n,
			"states":     []string{"VIGUEUR"},
		})
		if err != nil {
			return nil, err
		}
		var p page
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding code list: %w", err)
		}
		all.TotalResultNumber = p.TotalResultNumber
		all.Results = append(all.Results, p.Results...)
		if len(p.Results) == 0 || len(all.Results) >= all.TotalResultNumber {
			break
		}
	}
	if all.Results == nil {
		all.Results = []json.RawMessage{}
	}
	return json.Marshal(all)
}

// post sends a JSON request to endpoint and returns the JSON reply.
// Transient failures are retried.
func (c *Client) post(ctx context.Context, endpoint string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	onRetry := func(attempt int, err error) {
		c.logger.Warn("retrying legifrance request", "endpoint", endpoint, "attempt", attempt, "error", err)
	}
	return withRetry(ctx, c.delays, onRetry, func(ctx context.Context) (json.RawMessage, error) {
		return c.do(ctx, endpoint, body)
	})
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		// Wait gives up early, with an error of its own, when the next token
		// comes after the deadline.
		if ctx.Err() == nil {
			err = fmt.Errorf("legifrance %s: %w: %v", endpoint, context.DeadlineExceeded, err)
		}
		return nil, err
	}

	url := strings.TrimSuffix(c.cfg.APIURL, "/") + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
	}
	if !json.Valid(data) {
		return nil, catleg.Errorf(catleg.EINTERNAL, "legifrance %s: reply is not valid JSON", endpoint)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
