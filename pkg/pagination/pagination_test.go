package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront-catalog/pkg/errors"
)

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, Params{Page: 1, PerPage: DefaultPerPage}, DefaultParams())
}

func TestParse(t *testing.T) {
	tests := []struct {
		query   string
		want    Params
		wantErr string
	}{
		{"", Params{Page: 1, PerPage: 20, Offset: 0}, ""},
		{"page=2&per_page=10", Params{Page: 2, PerPage: 10, Offset: 10}, ""},
		{"per_page=100", Params{Page: 1, PerPage: 100, Offset: 0}, ""},
		{"page=5&per_page=20", Params{Page: 5, PerPage: 20, Offset: 80}, ""},
		{"page=3&per_page=25&sort=price", Params{Page: 3, PerPage: 25, Offset: 50}, ""},
		{"page=0", Params{}, "page must be"},
		{"page=abc", Params{}, "page must be"},
		{"page=-2", Params{}, "page must be"},
		{"per_page=0", Params{}, "per_page must be"},
		{"per_page=ten", Params{}, "per_page must be"},
		{"per_page=101", Params{}, "per_page must be"},
		{"per_page=-1", Params{}, "per_page must be"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products?"+tt.query, nil)
			p, err := Parse(req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}
