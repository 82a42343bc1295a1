// Package medusa fetches the product listing from a Medusa store API.
package medusa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront-catalog/pkg/httpclient"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
)

const (
	productsPath = "/store/products"

	// HeaderPublishableKey carries the store's publishable API key.
	HeaderPublishableKey = "x-publishable-api-key"

	// DefaultMaxBody bounds the size of a products response.
	DefaultMaxBody int64 = 32 << 20
)

// Doer sends HTTP requests. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config configures a Fetcher.
type Config struct {
	BaseURL        string
	PublishableKey string
	Limit          int
	Offset         int
	MaxBody        int64
}

// Fetcher implements catalog.Fetcher against GET {base}/store/products.
type Fetcher struct {
	client   Doer
	endpoint string
	key      string
	maxBody  int64
	logger   *slog.Logger
}

var _ catalog.Fetcher = (*Fetcher)(nil)

// NewFetcher builds a Fetcher. The base URL must be absolute.
func NewFetcher(client Doer, cfg Config, logger *slog.Logger) (*Fetcher, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse medusa base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("medusa base url %q must be absolute", cfg.BaseURL)
	}

	base.Path += productsPath
	q := base.Query()
	if cfg.Limit > 0 {
		q.Set("limit", strconv.Itoa(cfg.Limit))
	}
	if cfg.Offset > 0 {
		q.Set("offset", strconv.Itoa(cfg.Offset))
	}
	base.RawQuery = q.Encode()

	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}

	return &Fetcher{
		client:   client,
		endpoint: base.String(),
		key:      cfg.PublishableKey,
		maxBody:  maxBody,
		logger:   logger,
	}, nil
}

// Endpoint returns the URL the fetcher requests.
func (f *Fetcher) Endpoint() string {
	return f.endpoint
}

// Fetch retrieves the raw products document. Any status is returned to the
// caller together with the body; a 5xx surfaced by the client as
// *httpclient.StatusError is reported as that status rather than an error.
func (f *Fetcher) Fetch(ctx context.Context) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create products request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if f.key != "" {
		req.Header.Set(HeaderPublishableKey, f.key)
	}

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return statusErr.StatusCode, statusErr.Body, nil
		}
		return 0, nil, &catalog.TransportError{Err: err}
	}

	body, err := httpclient.ReadBody(resp, f.maxBody)
	if err != nil {
		return resp.StatusCode, nil, &catalog.TransportError{Status: resp.StatusCode, Err: err}
	}

	if httpclient.IsClientError(resp.StatusCode) {
		f.logger.WarnContext(ctx, "store rejected products request",
			slog.String("endpoint", f.endpoint),
			slog.Int("status", resp.StatusCode),
			slog.Bool("publishable_key_set", f.key != ""),
		)
	}

	f.logger.DebugContext(ctx, "fetched products",
		slog.String("endpoint", f.endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)
	return resp.StatusCode, body, nil
}
