package catalog

import (
	"slices"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/domain"
)

// snapshot is one immutable, fully built catalog. It is published with a
// single atomic store and never mutated afterwards; the query cache is the
// only internal state and is safe for concurrent use.
type snapshot struct {
	catalog     domain.Catalog
	byID        map[string]int
	keys        []searchKey
	categories  []string
	generation  uint64
	refreshedAt time.Time
	cache       *lru.Cache[string, []int]
}

// searchKey holds the lowercased fields a product is matched on.
type searchKey struct {
	title       string
	description string
	category    string
}

func newSnapshot(cat domain.Catalog, generation uint64, now time.Time, opts Options) *snapshot {
	lower := cases.Lower(opts.Locale)

	s := &snapshot{
		catalog:     cat,
		byID:        make(map[string]int, len(cat.Products)),
		keys:        make([]searchKey, len(cat.Products)),
		generation:  generation,
		refreshedAt: now,
	}

	derived := make([]string, len(cat.Products))
	for i := range cat.Products {
		p := &cat.Products[i]
		s.byID[p.ID] = i
		derived[i] = p.Category(opts.DefaultCategory)
		s.keys[i] = searchKey{
			title:       lower.String(p.Title),
			description: lower.String(p.Description),
			category:    lower.String(derived[i]),
		}
	}

	categories := lo.Without(lo.Uniq(derived), domain.CategoryAll)
	slices.Sort(categories)
	s.categories = append([]string{domain.CategoryAll}, categories...)

	if opts.SearchCacheSize > 0 {
		// lru.New only fails for a non-positive size.
		s.cache, _ = lru.New[string, []int](opts.SearchCacheSize)
	}
	return s
}

// match returns the indices of products passing the category filter and the
// text search, in catalog order.
func (s *snapshot) match(q Query, tag language.Tag) []int {
	key := q.Category + "\x00" + q.Text
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			SearchCacheLookups.WithLabelValues("hit").Inc()
			return hit
		}
		SearchCacheLookups.WithLabelValues("miss").Inc()
	}

	lower := cases.Lower(tag)
	category := ""
	if q.Category != "" && q.Category != domain.CategoryAll {
		category = lower.String(q.Category)
	}
	text := ""
	if q.Text != "" {
		text = lower.String(q.Text)
	}

	out := make([]int, 0, len(s.keys))
	for i := range s.keys {
		k := &s.keys[i]
		if category != "" && k.category != category {
			continue
		}
		if text != "" && !strings.Contains(k.title, text) &&
			!strings.Contains(k.description, text) &&
			!strings.Contains(k.category, text) {
			continue
		}
		out = append(out, i)
	}

	if s.cache != nil {
		s.cache.Add(key, out)
	}
	return out
}

func (s *snapshot) products(indices []int) []domain.Product {
	out := make([]domain.Product, len(indices))
	for i, idx := range indices {
		out[i] = s.catalog.Products[idx].Clone()
	}
	return out
}
