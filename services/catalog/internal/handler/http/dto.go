package http

import (
	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/domain"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/service"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/variant"
)

// --- Request DTOs ---

// ResolveVariantRequest is the JSON request body for resolving a variant.
type ResolveVariantRequest struct {
	Selections map[string]string `json:"selections" validate:"omitempty,max=32,dive,keys,required,max=128,endkeys,max=256"`
}

// --- Response DTOs ---

// ProductResponse is a product with the fields a storefront derives from it.
type ProductResponse struct {
	domain.Product
	Category     string   `json:"category"`
	PrimaryImage string   `json:"primary_image"`
	ImageURLs    []string `json:"image_urls"`
	InStock      bool     `json:"in_stock"`
}

func newProductResponse(p *domain.Product, defaultCategory string) ProductResponse {
	return ProductResponse{
		Product:      *p,
		Category:     p.Category(defaultCategory),
		PrimaryImage: p.PrimaryImage(),
		ImageURLs:    p.AllImages(),
		InStock:      p.InStock(),
	}
}

func newProductResponses(products []domain.Product, defaultCategory string) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = newProductResponse(&products[i], defaultCategory)
	}
	return out
}

// ResolveVariantResponse is the outcome of a variant resolution.
type ResolveVariantResponse struct {
	ProductID  string              `json:"product_id"`
	Selections variant.Selections  `json:"selections"`
	Variants   []domain.Variant    `json:"variants"`
	Current    *domain.Variant     `json:"current"`
	Selected   variant.Selections  `json:"selected"`
	Available  map[string][]string `json:"available"`
}

func newResolveVariantResponse(res *service.VariantResolution) ResolveVariantResponse {
	variants := res.Variants
	if variants == nil {
		variants = []domain.Variant{}
	}
	return ResolveVariantResponse{
		ProductID:  res.ProductID,
		Selections: res.Selections,
		Variants:   variants,
		Current:    res.Current,
		Selected:   res.Selected,
		Available:  res.Available,
	}
}

// RefreshResponse reports a completed catalog refresh.
type RefreshResponse struct {
	Generation uint64 `json:"generation"`
	Products   int    `json:"products"`
	Bytes      int    `json:"bytes"`
	TookMS     int64  `json:"took_ms"`
	Shared     bool   `json:"shared"`
}

func newRefreshResponse(res catalog.RefreshResult) RefreshResponse {
	return RefreshResponse{
		Generation: res.Generation,
		Products:   res.Products,
		Bytes:      len(res.Body),
		TookMS:     res.Took.Milliseconds(),
		Shared:     res.Shared,
	}
}
