package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/domain"
)

func opt(id, value, optionID, title string) domain.VariantOption {
	return domain.VariantOption{
		ID:       id,
		Value:    value,
		OptionID: optionID,
		Option:   &domain.OptionRef{ID: optionID, Title: title},
	}
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID: "prod_1",
		Options: []domain.Option{
			{ID: "opt_color", Title: "Color", Values: []domain.OptionValue{{Value: "Red"}, {Value: "Blue"}, {Value: "Green"}}},
			{ID: "opt_size", Title: "Size", Values: []domain.OptionValue{{Value: "S"}, {Value: "M"}}},
		},
		Variants: []domain.Variant{
			{ID: "V1", Options: []domain.VariantOption{opt("a", "Red", "opt_color", "Color"), opt("b", "S", "opt_size", "Size")}},
			{ID: "V2", Options: []domain.VariantOption{opt("c", "Red", "opt_color", "Color"), opt("d", "M", "opt_size", "Size")}},
			{ID: "V3", Options: []domain.VariantOption{opt("e", "Blue", "opt_color", "Color"), opt("f", "S", "opt_size", "Size")}},
		},
	}
}

func ids(variants []domain.Variant) []string {
	out := make([]string, len(variants))
	for i := range variants {
		out[i] = variants[i].ID
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		selections Selections
		want       []string
	}{
		{name: "single selection", selections: Selections{"Color": "Red"}, want: []string{"V1", "V2"}},
		{name: "conjunction", selections: Selections{"Color": "Red", "Size": "M"}, want: []string{"V2"}},
		{name: "no match", selections: Selections{"Color": "Green"}, want: []string{}},
		{name: "empty selections", selections: Selections{}, want: []string{"V1", "V2", "V3"}},
		{name: "nil selections", selections: nil, want: []string{"V1", "V2", "V3"}},
		{name: "case sensitive value", selections: Selections{"Color": "red"}, want: []string{}},
		{name: "case sensitive title", selections: Selections{"color": "Red"}, want: []string{}},
		{name: "unknown option", selections: Selections{"Material": "Wool"}, want: []string{}},
	}

	product := sampleProduct()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Resolve(product, tt.selections)))
		})
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	product := sampleProduct()
	sel := Selections{"Size": "S"}
	first := ids(Resolve(product, sel))
	for range 20 {
		assert.Equal(t, first, ids(Resolve(product, sel)))
	}
	assert.Equal(t, []string{"V1", "V3"}, first)
}

func TestResolve_RejoinsByOptionIDWithoutProjection(t *testing.T) {
	product := sampleProduct()
	for i := range product.Variants {
		for j := range product.Variants[i].Options {
			product.Variants[i].Options[j].Option = nil
		}
	}

	assert.Equal(t, []string{"V1", "V2"}, ids(Resolve(product, Selections{"Color": "Red"})))
	assert.Equal(t, []string{"V3"}, ids(Resolve(product, Selections{"Color": "Blue", "Size": "S"})))
}

func TestResolve_DanglingOptionIDNeverMatches(t *testing.T) {
	product := &domain.Product{
		Variants: []domain.Variant{{ID: "V1", Options: []domain.VariantOption{{Value: "Red", OptionID: "opt_missing"}}}},
	}
	assert.Empty(t, Resolve(product, Selections{"Color": "Red"}))
}

func TestCurrent(t *testing.T) {
	product := sampleProduct()

	v, ok := Current(product, Selections{"Size": "S"})
	require.True(t, ok)
	assert.Equal(t, "V1", v.ID)

	v, ok = Current(product, nil)
	require.True(t, ok)
	assert.Equal(t, "V1", v.ID)

	_, ok = Current(product, Selections{"Color": "Green"})
	assert.False(t, ok)

	_, ok = Current(&domain.Product{}, nil)
	assert.False(t, ok)
}

func TestSelected(t *testing.T) {
	product := sampleProduct()
	assert.Equal(t, Selections{"Color": "Blue", "Size": "S"}, Selected(product, &product.Variants[2]))
}

func TestAvailableValues(t *testing.T) {
	product := sampleProduct()

	assert.Equal(t, []string{"S", "M"}, AvailableValues(product, Selections{"Color": "Red"}, "Size"))
	assert.Equal(t, []string{"S"}, AvailableValues(product, Selections{"Color": "Blue"}, "Size"))
	assert.Equal(t, []string{"Red", "Blue"}, AvailableValues(product, Selections{"Size": "S"}, "Color"))
	assert.Equal(t, []string{"Red", "Blue"}, AvailableValues(product, Selections{"Color": "Red", "Size": "S"}, "Color"),
		"the option's own selection is ignored")
	assert.Empty(t, AvailableValues(product, nil, "Material"))
}

func TestResolve_ResultIsACopy(t *testing.T) {
	for _, sel := range []Selections{nil, {}, {"Color": "Red"}} {
		product := sampleProduct()
		got := Resolve(product, sel)
		require.NotEmpty(t, got)

		got[0].ID = "changed"
		assert.Equal(t, "V1", product.Variants[0].ID, "selections %v", sel)
	}
}
