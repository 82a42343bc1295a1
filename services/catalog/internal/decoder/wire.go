package decoder

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/dynamic"
)

// Wire shapes of the store products response. Pointer fields tagged
// `required` must be present and non-null; the validator treats a non-nil
// pointer as present even when it points at a zero value. Arrays stay raw
// and are decoded one element at a time so errors carry the element index.

type wireResponse struct {
	Products []json.RawMessage `json:"products" validate:"required"`
	Count    *int              `json:"count" validate:"required"`
	Offset   *int              `json:"offset" validate:"required"`
	Limit    *int              `json:"limit" validate:"required"`
}

type wireProduct struct {
	ID            *string           `json:"id" validate:"required"`
	Title         *string           `json:"title" validate:"required"`
	Subtitle      *string           `json:"subtitle"`
	Description   *string           `json:"description" validate:"required"`
	Handle        *string           `json:"handle" validate:"required"`
	IsGiftcard    *bool             `json:"is_giftcard" validate:"required"`
	Discountable  *bool             `json:"discountable" validate:"required"`
	Thumbnail     *string           `json:"thumbnail"`
	CollectionID  *string           `json:"collection_id"`
	TypeID        *string           `json:"type_id"`
	Weight        *flexString       `json:"weight"`
	Length        *flexString       `json:"length"`
	Height        *flexString       `json:"height"`
	Width         *flexString       `json:"width"`
	HSCode        *string           `json:"hs_code"`
	OriginCountry *string           `json:"origin_country"`
	MIDCode       *string           `json:"mid_code"`
	Material      *string           `json:"material"`
	Metadata      dynamic.Optional  `json:"metadata"`
	CreatedAt     *timestamp        `json:"created_at"`
	UpdatedAt     *timestamp        `json:"updated_at"`
	Type          *wireType         `json:"type"`
	Collection    *wireCollection   `json:"collection"`
	Options       []json.RawMessage `json:"options"`
	Tags          []json.RawMessage `json:"tags"`
	Images        []json.RawMessage `json:"images"`
	Variants      []json.RawMessage `json:"variants"`
}

type wireType struct {
	ID        *string    `json:"id"`
	Value     *string    `json:"value"`
	CreatedAt *timestamp `json:"created_at"`
	UpdatedAt *timestamp `json:"updated_at"`
}

type wireCollection struct {
	ID        *string    `json:"id"`
	Title     *string    `json:"title"`
	Handle    *string    `json:"handle"`
	CreatedAt *timestamp `json:"created_at"`
	UpdatedAt *timestamp `json:"updated_at"`
}

type wireOption struct {
	ID        *string           `json:"id" validate:"required"`
	Title     *string           `json:"title" validate:"required"`
	Metadata  dynamic.Optional  `json:"metadata"`
	ProductID *string           `json:"product_id"`
	Values    []json.RawMessage `json:"values"`
	CreatedAt *timestamp        `json:"created_at"`
	UpdatedAt *timestamp        `json:"updated_at"`
	DeletedAt *timestamp        `json:"deleted_at"`
}

type wireOptionValue struct {
	ID        *string          `json:"id" validate:"required"`
	Value     *string          `json:"value" validate:"required"`
	Metadata  dynamic.Optional `json:"metadata"`
	OptionID  *string          `json:"option_id"`
	CreatedAt *timestamp       `json:"created_at"`
	UpdatedAt *timestamp       `json:"updated_at"`
	DeletedAt *timestamp       `json:"deleted_at"`
}

type wireTag struct {
	ID        *string    `json:"id" validate:"required"`
	Value     *string    `json:"value" validate:"required"`
	CreatedAt *timestamp `json:"created_at"`
	UpdatedAt *timestamp `json:"updated_at"`
}

type wireImage struct {
	ID        *string          `json:"id" validate:"required"`
	URL       *string          `json:"url" validate:"required"`
	Metadata  dynamic.Optional `json:"metadata"`
	Rank      *int             `json:"rank"`
	ProductID *string          `json:"product_id"`
	CreatedAt *timestamp       `json:"created_at"`
	UpdatedAt *timestamp       `json:"updated_at"`
	DeletedAt *timestamp       `json:"deleted_at"`
}

type wireVariant struct {
	ID              *string           `json:"id" validate:"required"`
	Title           *string           `json:"title" validate:"required"`
	SKU             *string           `json:"sku"`
	Barcode         *string           `json:"barcode"`
	EAN             *string           `json:"ean"`
	UPC             *string           `json:"upc"`
	AllowBackorder  *bool             `json:"allow_backorder" validate:"required"`
	ManageInventory *bool             `json:"manage_inventory" validate:"required"`
	HSCode          *string           `json:"hs_code"`
	OriginCountry   *string           `json:"origin_country"`
	MIDCode         *string           `json:"mid_code"`
	Material        *string           `json:"material"`
	Weight          *flexString       `json:"weight"`
	Length          *flexString       `json:"length"`
	Height          *flexString       `json:"height"`
	Width           *flexString       `json:"width"`
	Metadata        dynamic.Optional  `json:"metadata"`
	VariantRank     *int              `json:"variant_rank"`
	ProductID       *string           `json:"product_id"`
	Options         []json.RawMessage `json:"options"`
	CreatedAt       *timestamp        `json:"created_at"`
	UpdatedAt       *timestamp        `json:"updated_at"`
	DeletedAt       *timestamp        `json:"deleted_at"`
}

type wireVariantOption struct {
	ID        *string          `json:"id" validate:"required"`
	Value     *string          `json:"value" validate:"required"`
	Metadata  dynamic.Optional `json:"metadata"`
	OptionID  *string          `json:"option_id"`
	Option    *wireOptionRef   `json:"option"`
	CreatedAt *timestamp       `json:"created_at"`
	UpdatedAt *timestamp       `json:"updated_at"`
	DeletedAt *timestamp       `json:"deleted_at"`
}

// wireOptionRef is the option nested under a variant option. It declares no
// values field, so encoding/json skips the nested values array unread.
type wireOptionRef struct {
	ID        *string          `json:"id" validate:"required"`
	Title     *string          `json:"title" validate:"required"`
	Metadata  dynamic.Optional `json:"metadata"`
	ProductID *string          `json:"product_id"`
	CreatedAt *timestamp       `json:"created_at"`
	UpdatedAt *timestamp       `json:"updated_at"`
	DeletedAt *timestamp       `json:"deleted_at"`
}

// flexString accepts a JSON string or number. Physical dimensions arrive as
// either depending on the server version.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return &json.UnmarshalTypeError{Value: tokenKind(data), Type: reflect.TypeFor[string]()}
	}
	*s = flexString(n.String())
	return nil
}

// timestamp is an RFC 3339 time whose parse failures surface as type errors,
// so the decoder can report the offending field path.
type timestamp time.Time

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &json.UnmarshalTypeError{Value: tokenKind(data), Type: reflect.TypeFor[time.Time]()}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + `"` + raw + `"`, Type: reflect.TypeFor[time.Time]()}
	}
	*t = timestamp(parsed)
	return nil
}

func tokenKind(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
