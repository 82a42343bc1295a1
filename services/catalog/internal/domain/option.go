package domain

import (
	"time"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/dynamic"
)

// Option is a configurable product dimension such as "Size" or "Color". It
// lives exactly once per product, in Product.Options.
type Option struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Metadata  dynamic.Optional `json:"metadata,omitzero"`
	ProductID string           `json:"product_id"`
	Values    []OptionValue    `json:"values"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

// OptionValue is one selectable value of an Option.
type OptionValue struct {
	ID        string           `json:"id"`
	Value     string           `json:"value"`
	Metadata  dynamic.Optional `json:"metadata,omitzero"`
	OptionID  string           `json:"option_id"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

// ValueStrings returns the option's values in stored order.
func (o *Option) ValueStrings() []string {
	out := make([]string, len(o.Values))
	for i := range o.Values {
		out[i] = o.Values[i].Value
	}
	return out
}

// Clone returns a deep copy of o.
func (o *Option) Clone() Option {
	out := *o
	out.Metadata = o.Metadata.Clone()
	out.CreatedAt = cloneTime(o.CreatedAt)
	out.UpdatedAt = cloneTime(o.UpdatedAt)
	out.DeletedAt = cloneTime(o.DeletedAt)
	out.Values = make([]OptionValue, len(o.Values))
	for i, v := range o.Values {
		v.Metadata = v.Metadata.Clone()
		v.CreatedAt = cloneTime(v.CreatedAt)
		v.UpdatedAt = cloneTime(v.UpdatedAt)
		v.DeletedAt = cloneTime(v.DeletedAt)
		out.Values[i] = v
	}
	return out
}

// OptionRef is the projection of an Option carried by a VariantOption. It
// holds identity and display fields only and never the option's values.
type OptionRef struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Metadata  dynamic.Optional `json:"metadata,omitzero"`
	ProductID string           `json:"product_id"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}
