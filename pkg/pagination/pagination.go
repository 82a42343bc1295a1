// Package pagination parses page/per_page query parameters.
package pagination

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/utafrali/storefront-catalog/pkg/errors"
)

const (
	DefaultPerPage = 20
	// MaxPerPage caps the page size a client may request.
	MaxPerPage = 100
)

// Params is a 1-based page selection. Offset is derived from Page and PerPage.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Parse reads page and per_page from the query string. Absent values take the
// defaults; a present value that is not an integer in range is an
// InvalidInput error.
func Parse(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := DefaultParams()

	var err error
	if p.Page, err = intParam(q, "page", p.Page, 1, 0); err != nil {
		return Params{}, apperrors.InvalidInput("page must be a valid positive integer")
	}
	if p.PerPage, err = intParam(q, "per_page", p.PerPage, 1, MaxPerPage); err != nil {
		return Params{}, apperrors.InvalidInput(fmt.Sprintf("per_page must be a valid integer between 1 and %d", MaxPerPage))
	}
	p.Offset = (p.Page - 1) * p.PerPage
	return p, nil
}

// intParam returns def when key is absent. hi of 0 means unbounded.
func intParam(q url.Values, key string, def, lo, hi int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < lo || (hi > 0 && v > hi) {
		return 0, fmt.Errorf("%s out of range", key)
	}
	return v, nil
}
