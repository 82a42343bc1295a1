package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/dynamic"
)

// Category labels.
const (
	// CategoryAll is the universal category; filtering by it returns every product.
	CategoryAll = "All"
	// DefaultCategory is used when a product has neither a collection nor a type.
	DefaultCategory = "General"
)

// Catalog is one decoded product listing together with its pagination data.
type Catalog struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
	Offset   int       `json:"offset"`
	Limit    int       `json:"limit"`
}

// Product represents a storefront product. A Product owns its options, tags,
// images and variants; Clone copies the whole graph.
type Product struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Subtitle      *string          `json:"subtitle,omitempty"`
	Description   string           `json:"description"`
	Handle        string           `json:"handle"`
	IsGiftcard    bool             `json:"is_giftcard"`
	Discountable  bool             `json:"discountable"`
	Thumbnail     *string          `json:"thumbnail,omitempty"`
	CollectionID  *string          `json:"collection_id,omitempty"`
	TypeID        *string          `json:"type_id,omitempty"`
	Weight        *string          `json:"weight,omitempty"`
	Length        *string          `json:"length,omitempty"`
	Height        *string          `json:"height,omitempty"`
	Width         *string          `json:"width,omitempty"`
	HSCode        *string          `json:"hs_code,omitempty"`
	OriginCountry *string          `json:"origin_country,omitempty"`
	MIDCode       *string          `json:"mid_code,omitempty"`
	Material      *string          `json:"material,omitempty"`
	Metadata      dynamic.Optional `json:"metadata,omitzero"`
	Collection    *Collection      `json:"collection,omitempty"`
	Type          *ProductType     `json:"type,omitempty"`
	Options       []Option         `json:"options"`
	Tags          []Tag            `json:"tags"`
	Images        []Image          `json:"images"`
	Variants      []Variant        `json:"variants"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
}

// Collection is the product collection reference. The server may omit any field.
type Collection struct {
	ID        *string    `json:"id,omitempty"`
	Title     *string    `json:"title,omitempty"`
	Handle    *string    `json:"handle,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProductType is the product type reference. The server may omit any field.
type ProductType struct {
	ID        *string    `json:"id,omitempty"`
	Value     *string    `json:"value,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Tag is a free-form product label.
type Tag struct {
	ID        string     `json:"id"`
	Value     string     `json:"value"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Image is a product image; Rank orders images for display.
type Image struct {
	ID        string           `json:"id"`
	URL       string           `json:"url"`
	Metadata  dynamic.Optional `json:"metadata,omitzero"`
	Rank      int              `json:"rank"`
	ProductID *string          `json:"product_id,omitempty"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

// Category returns the display category derived from the collection title,
// then the type value, then fallback. A present but empty title or value
// still wins.
func (p *Product) Category(fallback string) string {
	if p.Collection != nil && p.Collection.Title != nil {
		return *p.Collection.Title
	}
	if p.Type != nil && p.Type.Value != nil {
		return *p.Type.Value
	}
	return fallback
}

// PrimaryImage returns the thumbnail, else the first image URL, else "".
func (p *Product) PrimaryImage() string {
	if p.Thumbnail != nil && *p.Thumbnail != "" {
		return *p.Thumbnail
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// AllImages returns image URLs ordered by rank. Equal ranks keep their
// stored order.
func (p *Product) AllImages() []string {
	images := slices.Clone(p.Images)
	slices.SortStableFunc(images, func(a, b Image) int { return cmp.Compare(a.Rank, b.Rank) })

	urls := make([]string, len(images))
	for i := range images {
		urls[i] = images[i].URL
	}
	return urls
}

// InStock reports whether any variant is purchasable: either inventory is
// not managed, or it is managed without backorders.
func (p *Product) InStock() bool {
	for i := range p.Variants {
		v := &p.Variants[i]
		if !v.ManageInventory || !v.AllowBackorder {
			return true
		}
	}
	return false
}

// OptionByID returns the canonical option with the given id.
func (p *Product) OptionByID(id string) (Option, bool) {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return p.Options[i], true
		}
	}
	return Option{}, false
}

// OptionByTitle returns the canonical option with the given title.
func (p *Product) OptionByTitle(title string) (Option, bool) {
	for i := range p.Options {
		if p.Options[i].Title == title {
			return p.Options[i], true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy of p that shares no mutable state with it.
func (p *Product) Clone() Product {
	out := *p
	out.Subtitle = cloneString(p.Subtitle)
	out.Thumbnail = cloneString(p.Thumbnail)
	out.CollectionID = cloneString(p.CollectionID)
	out.TypeID = cloneString(p.TypeID)
	out.Weight = cloneString(p.Weight)
	out.Length = cloneString(p.Length)
	out.Height = cloneString(p.Height)
	out.Width = cloneString(p.Width)
	out.HSCode = cloneString(p.HSCode)
	out.OriginCountry = cloneString(p.OriginCountry)
	out.MIDCode = cloneString(p.MIDCode)
	out.Material = cloneString(p.Material)
	out.Metadata = p.Metadata.Clone()
	out.CreatedAt = cloneTime(p.CreatedAt)
	out.UpdatedAt = cloneTime(p.UpdatedAt)

	if p.Collection != nil {
		c := *p.Collection
		c.ID = cloneString(c.ID)
		c.Title = cloneString(c.Title)
		c.Handle = cloneString(c.Handle)
		c.CreatedAt = cloneTime(c.CreatedAt)
		c.UpdatedAt = cloneTime(c.UpdatedAt)
		out.Collection = &c
	}
	if p.Type != nil {
		t := *p.Type
		t.ID = cloneString(t.ID)
		t.Value = cloneString(t.Value)
		t.CreatedAt = cloneTime(t.CreatedAt)
		t.UpdatedAt = cloneTime(t.UpdatedAt)
		out.Type = &t
	}

	out.Options = make([]Option, len(p.Options))
	for i := range p.Options {
		out.Options[i] = p.Options[i].Clone()
	}
	out.Tags = make([]Tag, len(p.Tags))
	for i, tag := range p.Tags {
		tag.CreatedAt = cloneTime(tag.CreatedAt)
		tag.UpdatedAt = cloneTime(tag.UpdatedAt)
		out.Tags[i] = tag
	}
	out.Images = make([]Image, len(p.Images))
	for i, img := range p.Images {
		img.Metadata = img.Metadata.Clone()
		img.ProductID = cloneString(img.ProductID)
		img.CreatedAt = cloneTime(img.CreatedAt)
		img.UpdatedAt = cloneTime(img.UpdatedAt)
		img.DeletedAt = cloneTime(img.DeletedAt)
		out.Images[i] = img
	}
	out.Variants = make([]Variant, len(p.Variants))
	for i := range p.Variants {
		out.Variants[i] = p.Variants[i].Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
