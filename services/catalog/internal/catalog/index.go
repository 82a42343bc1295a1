// Package catalog holds the live product catalog and answers queries on it.
//
// The catalog is an immutable snapshot published through an atomic pointer.
// Refresh is the only mutator: it fetches, decodes and swaps in a new
// snapshot, so readers always see one whole catalog. Concurrent Refresh
// calls join the one already in flight and share its result.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/utafrali/storefront-catalog/pkg/tracing"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/decoder"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/domain"
)

const refreshKey = "refresh"

// Options configures an Index.
type Options struct {
	// DefaultCategory labels products with neither a collection nor a type.
	DefaultCategory string
	// Locale drives case folding for search and category matching.
	Locale language.Tag
	// SearchCacheSize bounds the per-snapshot query cache; 0 disables it.
	SearchCacheSize int
	Logger          *slog.Logger
}

// Query filters the catalog by derived category and search text. An empty
// Category or "All" disables the category filter; an empty Text disables
// search. Limit 0 returns every match from Offset on.
type Query struct {
	Category string
	Text     string
	Offset   int
	Limit    int
}

// Page is one window of query results.
type Page struct {
	Products []domain.Product
	Total    int
}

// RefreshResult describes a successful refresh. Body is the raw document the
// snapshot was decoded from and must not be modified.
type RefreshResult struct {
	Generation uint64
	Products   int
	Body       []byte
	Took       time.Duration
	// Shared is true when the caller joined a refresh started by another caller.
	Shared bool
}

// Stats describes the live snapshot.
type Stats struct {
	Loaded      bool      `json:"loaded"`
	Generation  uint64    `json:"generation"`
	Products    int       `json:"products"`
	Categories  int       `json:"categories"`
	Count       int       `json:"count"`
	Offset      int       `json:"offset"`
	Limit       int       `json:"limit"`
	RefreshedAt time.Time `json:"refreshed_at,omitzero"`
}

// Index is the queryable in-memory catalog.
type Index struct {
	fetcher    Fetcher
	opts       Options
	logger     *slog.Logger
	current    atomic.Pointer[snapshot]
	generation uint64
	group      singleflight.Group
	now        func() time.Time
}

// New creates an empty Index that refreshes from fetcher.
func New(fetcher Fetcher, opts Options) *Index {
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = domain.DefaultCategory
	}
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idx := &Index{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
	idx.current.Store(newSnapshot(domain.Catalog{}, 0, time.Time{}, opts))
	return idx
}

// Refresh fetches and decodes a new catalog and replaces the held one. On
// any failure the previous catalog stays in place. Callers arriving while a
// refresh is in flight wait for it and receive its outcome; ctx only bounds
// how long the caller waits.
func (idx *Index) Refresh(ctx context.Context) (RefreshResult, error) {
	return idx.RefreshFrom(ctx, idx.fetcher)
}

// Load replaces the catalog with one decoded from body, under the same
// single-flight rule as Refresh.
func (idx *Index) Load(ctx context.Context, body []byte) (RefreshResult, error) {
	return idx.RefreshFrom(ctx, Static(body))
}

// RefreshFrom is Refresh with an explicit fetcher. A caller that joins an
// in-flight refresh gets that refresh's result whichever fetcher it used.
func (idx *Index) RefreshFrom(ctx context.Context, f Fetcher) (RefreshResult, error) {
	detached := context.WithoutCancel(ctx)
	var leader bool
	ch := idx.group.DoChan(refreshKey, func() (any, error) {
		leader = true
		return idx.refresh(detached, f)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return RefreshResult{}, res.Err
		}
		out := res.Val.(RefreshResult)
		out.Shared = !leader
		return out, nil
	case <-ctx.Done():
		return RefreshResult{}, ctx.Err()
	}
}

// refresh runs inside the single-flight group, so at most one instance
// executes at a time.
func (idx *Index) refresh(ctx context.Context, f Fetcher) (RefreshResult, error) {
	ctx, span := tracing.Tracer("catalog").Start(ctx, "catalog.Refresh")
	defer span.End()

	start := time.Now()
	fail := func(result string, err error) (RefreshResult, error) {
		RefreshTotal.WithLabelValues(result).Inc()
		RefreshDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		tracing.RecordError(span, err)
		idx.logger.ErrorContext(ctx, "catalog refresh failed, keeping previous snapshot",
			slog.String("result", result),
			slog.Uint64("generation", idx.current.Load().generation),
			slog.String("error", err.Error()),
		)
		return RefreshResult{}, err
	}

	status, body, err := f.Fetch(ctx)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Err: err}
		}
		return fail(resultTransportError, err)
	}
	if status != http.StatusOK {
		return fail(resultTransportError, &TransportError{Status: status})
	}

	cat, err := decoder.Decode(body)
	if err != nil {
		return fail(resultDecodeError, err)
	}

	idx.generation++
	snap := newSnapshot(cat, idx.generation, idx.now(), idx.opts)
	idx.current.Store(snap)

	took := time.Since(start)
	RefreshTotal.WithLabelValues(resultOK).Inc()
	RefreshDuration.WithLabelValues(resultOK).Observe(took.Seconds())
	Products.Set(float64(len(cat.Products)))
	Generation.Set(float64(snap.generation))
	span.SetAttributes(
		attribute.Int64("catalog.generation", int64(snap.generation)),
		attribute.Int("catalog.products", len(cat.Products)),
		attribute.Int("catalog.bytes", len(body)),
	)

	idx.logger.InfoContext(ctx, "catalog refreshed",
		slog.Uint64("generation", snap.generation),
		slog.Int("products", len(cat.Products)),
		slog.Int("categories", len(snap.categories)-1),
		slog.Duration("took", took),
	)

	return RefreshResult{
		Generation: snap.generation,
		Products:   len(cat.Products),
		Body:       body,
		Took:       took,
	}, nil
}

// Loaded reports whether a refresh has ever succeeded.
func (idx *Index) Loaded() bool {
	return idx.current.Load().generation > 0
}

// ByID returns a copy of the product with the given id.
func (idx *Index) ByID(id string) (domain.Product, bool) {
	s := idx.current.Load()
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.catalog.Products[i].Clone(), true
}

// ByCategory returns the products whose derived category equals name,
// compared case-insensitively. "All" returns every product.
func (idx *Index) ByCategory(name string) []domain.Product {
	return idx.Query(Query{Category: name}).Products
}

// Search returns the products whose title, description or derived category
// contains text, compared case-insensitively. Empty text returns every
// product.
func (idx *Index) Search(text string) []domain.Product {
	return idx.Query(Query{Text: text}).Products
}

// Query applies the category filter and then the search, keeping catalog
// order, and returns the requested window.
func (idx *Index) Query(q Query) Page {
	s := idx.current.Load()
	matched := s.match(Query{Category: q.Category, Text: q.Text}, idx.opts.Locale)

	total := len(matched)
	from := min(max(q.Offset, 0), total)
	to := total
	if q.Limit > 0 {
		to = min(from+q.Limit, total)
	}
	return Page{Products: s.products(matched[from:to]), Total: total}
}

// AvailableCategories returns "All" followed by the distinct derived
// categories in lexicographic order.
func (idx *Index) AvailableCategories() []string {
	cats := idx.current.Load().categories
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}

// DefaultCategory returns the label given to products with neither a
// collection nor a type.
func (idx *Index) DefaultCategory() string {
	return idx.opts.DefaultCategory
}

// Stats describes the live snapshot.
func (idx *Index) Stats() Stats {
	s := idx.current.Load()
	return Stats{
		Loaded:      s.generation > 0,
		Generation:  s.generation,
		Products:    len(s.catalog.Products),
		Categories:  len(s.categories) - 1,
		Count:       s.catalog.Count,
		Offset:      s.catalog.Offset,
		Limit:       s.catalog.Limit,
		RefreshedAt: s.refreshedAt,
	}
}
