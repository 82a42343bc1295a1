package domain

import (
	"time"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/dynamic"
)

// Variant is a purchasable combination of option values.
type Variant struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SKU             *string          `json:"sku,omitempty"`
	Barcode         *string          `json:"barcode,omitempty"`
	EAN             *string          `json:"ean,omitempty"`
	UPC             *string          `json:"upc,omitempty"`
	AllowBackorder  bool             `json:"allow_backorder"`
	ManageInventory bool             `json:"manage_inventory"`
	HSCode          *string          `json:"hs_code,omitempty"`
	OriginCountry   *string          `json:"origin_country,omitempty"`
	MIDCode         *string          `json:"mid_code,omitempty"`
	Material        *string          `json:"material,omitempty"`
	Weight          *string          `json:"weight,omitempty"`
	Length          *string          `json:"length,omitempty"`
	Height          *string          `json:"height,omitempty"`
	Width           *string          `json:"width,omitempty"`
	Metadata        dynamic.Optional `json:"metadata,omitzero"`
	Rank            int              `json:"variant_rank"`
	ProductID       string           `json:"product_id"`
	Options         []VariantOption  `json:"options"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
	DeletedAt       *time.Time       `json:"deleted_at,omitempty"`
}

// VariantOption binds a variant to one value of a product option. Option is a
// non-owning projection and may be nil when the server omitted it; OptionID
// always identifies the canonical option.
type VariantOption struct {
	ID        string           `json:"id"`
	Value     string           `json:"value"`
	Metadata  dynamic.Optional `json:"metadata,omitzero"`
	OptionID  string           `json:"option_id"`
	Option    *OptionRef       `json:"option,omitempty"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

// Clone returns a deep copy of v.
func (v *Variant) Clone() Variant {
	out := *v
	out.SKU = cloneString(v.SKU)
	out.Barcode = cloneString(v.Barcode)
	out.EAN = cloneString(v.EAN)
	out.UPC = cloneString(v.UPC)
	out.HSCode = cloneString(v.HSCode)
	out.OriginCountry = cloneString(v.OriginCountry)
	out.MIDCode = cloneString(v.MIDCode)
	out.Material = cloneString(v.Material)
	out.Weight = cloneString(v.Weight)
	out.Length = cloneString(v.Length)
	out.Height = cloneString(v.Height)
	out.Width = cloneString(v.Width)
	out.Metadata = v.Metadata.Clone()
	out.CreatedAt = cloneTime(v.CreatedAt)
	out.UpdatedAt = cloneTime(v.UpdatedAt)
	out.DeletedAt = cloneTime(v.DeletedAt)

	out.Options = make([]VariantOption, len(v.Options))
	for i, vo := range v.Options {
		vo.Metadata = vo.Metadata.Clone()
		vo.CreatedAt = cloneTime(vo.CreatedAt)
		vo.UpdatedAt = cloneTime(vo.UpdatedAt)
		vo.DeletedAt = cloneTime(vo.DeletedAt)
		if vo.Option != nil {
			ref := *vo.Option
			ref.Metadata = ref.Metadata.Clone()
			ref.CreatedAt = cloneTime(ref.CreatedAt)
			ref.UpdatedAt = cloneTime(ref.UpdatedAt)
			ref.DeletedAt = cloneTime(ref.DeletedAt)
			vo.Option = &ref
		}
		out.Options[i] = vo
	}
	return out
}
