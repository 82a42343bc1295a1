// Package variant narrows a product's variants by selected option values.
//
// Every function is pure: the same product and selections always produce the
// same ordered result, and an empty result is a valid outcome.
package variant

import (
	"slices"

	"github.com/samber/lo"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/domain"
)

// Selections maps an option title to the chosen value, e.g. {"Size": "M"}.
type Selections map[string]string

// Resolve returns the variants matching every selection, in stored order.
// Empty selections return all variants. The result never shares storage with
// product. Matching is exact and case-sensitive.
func Resolve(product *domain.Product, selections Selections) []domain.Variant {
	if len(selections) == 0 {
		return slices.Clone(product.Variants)
	}
	return lo.Filter(product.Variants, func(v domain.Variant, _ int) bool {
		return matches(product, &v, selections)
	})
}

// Current returns the first resolved variant, if any.
func Current(product *domain.Product, selections Selections) (domain.Variant, bool) {
	for i := range product.Variants {
		if matches(product, &product.Variants[i], selections) {
			return product.Variants[i], true
		}
	}
	return domain.Variant{}, false
}

// Selected returns the option title to value pairs of v.
func Selected(product *domain.Product, v *domain.Variant) Selections {
	out := make(Selections, len(v.Options))
	for i := range v.Options {
		if title, ok := optionTitle(product, &v.Options[i]); ok {
			out[title] = v.Options[i].Value
		}
	}
	return out
}

// AvailableValues lists the values of the option titled title that still lead
// to at least one variant when combined with the other selections. Values
// keep the canonical option's order.
func AvailableValues(product *domain.Product, selections Selections, title string) []string {
	opt, ok := product.OptionByTitle(title)
	if !ok {
		return []string{}
	}

	others := lo.OmitByKeys(selections, []string{title})
	candidates := Resolve(product, others)

	return lo.Filter(opt.ValueStrings(), func(value string, _ int) bool {
		return lo.SomeBy(candidates, func(v domain.Variant) bool {
			return hasPair(product, &v, title, value)
		})
	})
}

func matches(product *domain.Product, v *domain.Variant, selections Selections) bool {
	for title, value := range selections {
		if !hasPair(product, v, title, value) {
			return false
		}
	}
	return true
}

func hasPair(product *domain.Product, v *domain.Variant, title, value string) bool {
	for i := range v.Options {
		vo := &v.Options[i]
		if vo.Value != value {
			continue
		}
		if t, ok := optionTitle(product, vo); ok && t == title {
			return true
		}
	}
	return false
}

// optionTitle reads the projected title, falling back to the canonical option
// looked up by id when the projection was omitted.
func optionTitle(product *domain.Product, vo *domain.VariantOption) (string, bool) {
	if vo.Option != nil {
		return vo.Option.Title, true
	}
	opt, ok := product.OptionByID(vo.OptionID)
	if !ok {
		return "", false
	}
	return opt.Title, true
}
