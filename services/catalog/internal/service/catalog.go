package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/utafrali/storefront-catalog/pkg/errors"
	"github.com/utafrali/storefront-catalog/pkg/pagination"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/decoder"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/domain"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/snapshot"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/variant"
)

// Error codes returned for catalog failures.
const (
	CodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamInvalidPayload = "UPSTREAM_INVALID_PAYLOAD"
	CodeCatalogNotReady        = "CATALOG_NOT_READY"
	CodeRefreshTimeout         = "REFRESH_TIMEOUT"
)

// SnapshotStore persists the last good raw catalog document.
type SnapshotStore interface {
	Save(ctx context.Context, generation uint64, body []byte) error
	Load(ctx context.Context) (snapshot.Snapshot, error)
	Delete(ctx context.Context) error
}

// EventPublisher announces catalog changes.
type EventPublisher interface {
	PublishCatalogRefreshed(ctx context.Context, res catalog.RefreshResult) error
}

// Options configures a CatalogService. Nil Snapshots or Events disable
// persistence and event publishing.
type Options struct {
	Snapshots SnapshotStore
	Events    EventPublisher
	// RefreshTimeout bounds how long a caller waits for a refresh; 0 means
	// the caller's context alone decides.
	RefreshTimeout time.Duration
}

// CatalogService implements the business logic for catalog queries and
// refreshes.
type CatalogService struct {
	index          *catalog.Index
	snapshots      SnapshotStore
	events         EventPublisher
	refreshTimeout time.Duration
	logger         *slog.Logger
}

// NewCatalogService creates a new catalog service over index.
func NewCatalogService(index *catalog.Index, opts Options, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		index:          index,
		snapshots:      opts.Snapshots,
		events:         opts.Events,
		refreshTimeout: opts.RefreshTimeout,
		logger:         logger,
	}
}

// ListProductsInput holds the parameters for listing products.
type ListProductsInput struct {
	Category string
	Query    string
	Page     pagination.Params
}

// ListProducts returns one page of products matching the category filter
// and search text, along with the total number of matches.
func (s *CatalogService) ListProducts(ctx context.Context, input ListProductsInput) ([]domain.Product, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}

	page := s.index.Query(catalog.Query{
		Category: input.Category,
		Text:     input.Query,
		Offset:   input.Page.Offset,
		Limit:    input.Page.PerPage,
	})
	return page.Products, page.Total, nil
}

// GetProduct retrieves a product by its id.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	product, ok := s.index.ByID(id)
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &product, nil
}

// Categories returns "All" followed by the distinct derived categories.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.index.AvailableCategories(), nil
}

// DefaultCategory returns the category label of uncategorized products.
func (s *CatalogService) DefaultCategory() string {
	return s.index.DefaultCategory()
}

// VariantResolution is the outcome of narrowing a product's variants.
type VariantResolution struct {
	ProductID  string
	Selections variant.Selections
	Variants   []domain.Variant
	// Current is the first matching variant, nil when nothing matches.
	Current *domain.Variant
	// Selected holds the option values of Current.
	Selected variant.Selections
	// Available lists, per option title, the values still reachable under
	// the other selections.
	Available map[string][]string
}

// ResolveVariant narrows the variants of a product by selections. An empty
// result is not an error.
func (s *CatalogService) ResolveVariant(ctx context.Context, productID string, selections variant.Selections) (*VariantResolution, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if selections == nil {
		selections = variant.Selections{}
	}

	res := &VariantResolution{
		ProductID:  product.ID,
		Selections: selections,
		Variants:   variant.Resolve(product, selections),
		Selected:   variant.Selections{},
		Available:  make(map[string][]string, len(product.Options)),
	}
	if current, ok := variant.Current(product, selections); ok {
		res.Current = &current
		res.Selected = variant.Selected(product, &current)
	}
	for i := range product.Options {
		title := product.Options[i].Title
		res.Available[title] = variant.AvailableValues(product, selections, title)
	}

	s.logger.DebugContext(ctx, "variant resolved",
		slog.String("product_id", product.ID),
		slog.Int("matches", len(res.Variants)),
	)
	return res, nil
}

// Refresh reloads the catalog from upstream. A refresh this call started
// is persisted as a snapshot and announced; both are best effort. Callers
// that joined another caller's refresh share its result without repeating
// either step.
func (s *CatalogService) Refresh(ctx context.Context) (catalog.RefreshResult, error) {
	if s.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.refreshTimeout)
		defer cancel()
	}

	res, err := s.index.Refresh(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "catalog refresh failed",
			slog.String("error", err.Error()),
			slog.Bool("serving_previous", s.index.Loaded()),
		)
		return catalog.RefreshResult{}, mapRefreshError(err)
	}
	if res.Shared {
		return res, nil
	}

	s.persist(ctx, res)
	s.announce(ctx, res)
	return res, nil
}

// WarmStart loads the stored snapshot into the index. It reports whether a
// snapshot was loaded; a missing snapshot is not an error. A snapshot that
// no longer decodes is deleted.
func (s *CatalogService) WarmStart(ctx context.Context) (bool, error) {
	if s.snapshots == nil {
		return false, nil
	}

	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Wrap(err, "load catalog snapshot")
	}

	res, err := s.index.Load(ctx, snap.Body)
	if err != nil {
		if delErr := s.snapshots.Delete(ctx); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete corrupt catalog snapshot",
				slog.String("error", delErr.Error()),
			)
		} else {
			s.logger.WarnContext(ctx, "deleted corrupt catalog snapshot",
				slog.Uint64("snapshot_generation", snap.Generation),
			)
		}
		return false, apperrors.Wrap(err, "decode catalog snapshot")
	}

	s.logger.InfoContext(ctx, "catalog warm started from snapshot",
		slog.Uint64("snapshot_generation", snap.Generation),
		slog.Time("saved_at", snap.SavedAt),
		slog.Int("products", res.Products),
	)
	return true, nil
}

// Stats describes the live catalog.
func (s *CatalogService) Stats(ctx context.Context) catalog.Stats {
	return s.index.Stats()
}

// Ready returns an error until the first catalog is loaded.
func (s *CatalogService) Ready(ctx context.Context) error {
	return s.ready()
}

func (s *CatalogService) ready() error {
	if !s.index.Loaded() {
		return apperrors.ServiceUnavailable(CodeCatalogNotReady, "catalog has not been loaded yet")
	}
	return nil
}

func (s *CatalogService) persist(ctx context.Context, res catalog.RefreshResult) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, res.Generation, res.Body); err != nil {
		s.logger.WarnContext(ctx, "failed to save catalog snapshot",
			slog.Uint64("generation", res.Generation),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CatalogService) announce(ctx context.Context, res catalog.RefreshResult) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishCatalogRefreshed(ctx, res); err != nil {
		s.logger.WarnContext(ctx, "failed to publish catalog.refreshed event",
			slog.Uint64("generation", res.Generation),
			slog.String("error", err.Error()),
		)
	}
}

func mapRefreshError(err error) error {
	var transportErr *catalog.TransportError
	var decodeErr *decoder.DecodeError

	switch {
	case errors.As(err, &transportErr):
		return apperrors.BadGateway(CodeUpstreamUnavailable, "catalog source is unavailable", err)
	case errors.As(err, &decodeErr):
		return apperrors.BadGateway(CodeUpstreamInvalidPayload, "catalog source returned an invalid payload", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ServiceUnavailable(CodeRefreshTimeout, "catalog refresh timed out")
	case errors.Is(err, context.Canceled):
		return err
	default:
		return apperrors.Internal(err)
	}
}
