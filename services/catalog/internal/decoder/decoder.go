// Package decoder maps the store products response into catalog entities.
//
// Decoding is all-or-nothing: a single malformed product fails the whole
// document and no partial catalog is returned.
package decoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/utafrali/storefront-catalog/pkg/validator"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/domain"
)

// DecodeError identifies the first structurally invalid field of a document.
// Path is a JSON path such as "products[1].id"; it is empty when the
// document itself is malformed.
type DecodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "decode catalog: " + e.Reason
	}
	return fmt.Sprintf("decode catalog: %s: %s", e.Path, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses a store products response.
func Decode(data []byte) (domain.Catalog, error) {
	var resp wireResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.Catalog{}, jsonError("", err)
	}
	if err := validator.Validate(resp); err != nil {
		return domain.Catalog{}, validationError("", err)
	}

	products := make([]domain.Product, 0, len(resp.Products))
	seen := make(map[string]int, len(resp.Products))
	for i, raw := range resp.Products {
		prefix := "products[" + strconv.Itoa(i) + "]"
		p, err := decodeProduct(prefix, raw)
		if err != nil {
			return domain.Catalog{}, err
		}
		if first, dup := seen[p.ID]; dup {
			return domain.Catalog{}, &DecodeError{
				Path:   prefix + ".id",
				Reason: fmt.Sprintf("duplicate product id %q (first at products[%d])", p.ID, first),
			}
		}
		seen[p.ID] = i
		products = append(products, p)
	}

	return domain.Catalog{
		Products: products,
		Count:    *resp.Count,
		Offset:   *resp.Offset,
		Limit:    *resp.Limit,
	}, nil
}

func decodeProduct(prefix string, raw json.RawMessage) (domain.Product, error) {
	var wp wireProduct
	if err := json.Unmarshal(raw, &wp); err != nil {
		return domain.Product{}, jsonError(prefix, err)
	}
	if err := validator.Validate(wp); err != nil {
		return domain.Product{}, validationError(prefix, err)
	}

	p := domain.Product{
		ID:            *wp.ID,
		Title:         *wp.Title,
		Subtitle:      wp.Subtitle,
		Description:   *wp.Description,
		Handle:        *wp.Handle,
		IsGiftcard:    *wp.IsGiftcard,
		Discountable:  *wp.Discountable,
		Thumbnail:     wp.Thumbnail,
		CollectionID:  wp.CollectionID,
		TypeID:        wp.TypeID,
		Weight:        flex(wp.Weight),
		Length:        flex(wp.Length),
		Height:        flex(wp.Height),
		Width:         flex(wp.Width),
		HSCode:        wp.HSCode,
		OriginCountry: wp.OriginCountry,
		MIDCode:       wp.MIDCode,
		Material:      wp.Material,
		Metadata:      wp.Metadata,
		CreatedAt:     wp.CreatedAt.ptr(),
		UpdatedAt:     wp.UpdatedAt.ptr(),
		Options:       make([]domain.Option, 0, len(wp.Options)),
		Tags:          make([]domain.Tag, 0, len(wp.Tags)),
		Images:        make([]domain.Image, 0, len(wp.Images)),
		Variants:      make([]domain.Variant, 0, len(wp.Variants)),
	}

	if wp.Collection != nil {
		p.Collection = &domain.Collection{
			ID:        wp.Collection.ID,
			Title:     wp.Collection.Title,
			Handle:    wp.Collection.Handle,
			CreatedAt: wp.Collection.CreatedAt.ptr(),
			UpdatedAt: wp.Collection.UpdatedAt.ptr(),
		}
	}
	if wp.Type != nil {
		p.Type = &domain.ProductType{
			ID:        wp.Type.ID,
			Value:     wp.Type.Value,
			CreatedAt: wp.Type.CreatedAt.ptr(),
			UpdatedAt: wp.Type.UpdatedAt.ptr(),
		}
	}

	titles := make(map[string]int, len(wp.Options))
	err := decodeEach(prefix, "options", wp.Options, func(i int, path string, wo *wireOption) error {
		opt, err := mapOption(path, p.ID, wo)
		if err != nil {
			return err
		}
		if first, dup := titles[opt.Title]; dup {
			return &DecodeError{
				Path:   path + ".title",
				Reason: fmt.Sprintf("duplicate option title %q (first at options[%d])", opt.Title, first),
			}
		}
		titles[opt.Title] = i
		p.Options = append(p.Options, opt)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	err = decodeEach(prefix, "tags", wp.Tags, func(_ int, _ string, wt *wireTag) error {
		p.Tags = append(p.Tags, domain.Tag{
			ID:        *wt.ID,
			Value:     *wt.Value,
			CreatedAt: wt.CreatedAt.ptr(),
			UpdatedAt: wt.UpdatedAt.ptr(),
		})
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	err = decodeEach(prefix, "images", wp.Images, func(_ int, _ string, wi *wireImage) error {
		p.Images = append(p.Images, domain.Image{
			ID:        *wi.ID,
			URL:       *wi.URL,
			Metadata:  wi.Metadata,
			Rank:      deref(wi.Rank),
			ProductID: wi.ProductID,
			CreatedAt: wi.CreatedAt.ptr(),
			UpdatedAt: wi.UpdatedAt.ptr(),
			DeletedAt: wi.DeletedAt.ptr(),
		})
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	err = decodeEach(prefix, "variants", wp.Variants, func(_ int, path string, wv *wireVariant) error {
		v, err := mapVariant(path, p.ID, wv)
		if err != nil {
			return err
		}
		p.Variants = append(p.Variants, v)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return p, nil
}

// decodeEach decodes and validates every element of raws as a T and hands
// it to fn with its path, e.g. "products[0].variants[1]". It stops at the
// first error.
func decodeEach[T any](prefix, field string, raws []json.RawMessage, fn func(i int, path string, w *T) error) error {
	for i, raw := range raws {
		path := fmt.Sprintf("%s.%s[%d]", prefix, field, i)
		var w T
		if err := json.Unmarshal(raw, &w); err != nil {
			return jsonError(path, err)
		}
		if err := validator.Validate(w); err != nil {
			return validationError(path, err)
		}
		if err := fn(i, path, &w); err != nil {
			return err
		}
	}
	return nil
}

func mapOption(prefix, productID string, wo *wireOption) (domain.Option, error) {
	opt := domain.Option{
		ID:        *wo.ID,
		Title:     *wo.Title,
		Metadata:  wo.Metadata,
		ProductID: derefOr(wo.ProductID, productID),
		Values:    make([]domain.OptionValue, 0, len(wo.Values)),
		CreatedAt: wo.CreatedAt.ptr(),
		UpdatedAt: wo.UpdatedAt.ptr(),
		DeletedAt: wo.DeletedAt.ptr(),
	}
	err := decodeEach(prefix, "values", wo.Values, func(_ int, _ string, wv *wireOptionValue) error {
		opt.Values = append(opt.Values, domain.OptionValue{
			ID:        *wv.ID,
			Value:     *wv.Value,
			Metadata:  wv.Metadata,
			OptionID:  derefOr(wv.OptionID, opt.ID),
			CreatedAt: wv.CreatedAt.ptr(),
			UpdatedAt: wv.UpdatedAt.ptr(),
			DeletedAt: wv.DeletedAt.ptr(),
		})
		return nil
	})
	return opt, err
}

func mapVariant(prefix, productID string, wv *wireVariant) (domain.Variant, error) {
	v := domain.Variant{
		ID:              *wv.ID,
		Title:           *wv.Title,
		SKU:             wv.SKU,
		Barcode:         wv.Barcode,
		EAN:             wv.EAN,
		UPC:             wv.UPC,
		AllowBackorder:  *wv.AllowBackorder,
		ManageInventory: *wv.ManageInventory,
		HSCode:          wv.HSCode,
		OriginCountry:   wv.OriginCountry,
		MIDCode:         wv.MIDCode,
		Material:        wv.Material,
		Weight:          flex(wv.Weight),
		Length:          flex(wv.Length),
		Height:          flex(wv.Height),
		Width:           flex(wv.Width),
		Metadata:        wv.Metadata,
		Rank:            deref(wv.VariantRank),
		ProductID:       derefOr(wv.ProductID, productID),
		Options:         make([]domain.VariantOption, 0, len(wv.Options)),
		CreatedAt:       wv.CreatedAt.ptr(),
		UpdatedAt:       wv.UpdatedAt.ptr(),
		DeletedAt:       wv.DeletedAt.ptr(),
	}

	err := decodeEach(prefix, "options", wv.Options, func(_ int, path string, wo *wireVariantOption) error {
		vo := domain.VariantOption{
			ID:        *wo.ID,
			Value:     *wo.Value,
			Metadata:  wo.Metadata,
			CreatedAt: wo.CreatedAt.ptr(),
			UpdatedAt: wo.UpdatedAt.ptr(),
			DeletedAt: wo.DeletedAt.ptr(),
		}
		if wo.Option != nil {
			vo.Option = &domain.OptionRef{
				ID:        *wo.Option.ID,
				Title:     *wo.Option.Title,
				Metadata:  wo.Option.Metadata,
				ProductID: derefOr(wo.Option.ProductID, productID),
				CreatedAt: wo.Option.CreatedAt.ptr(),
				UpdatedAt: wo.Option.UpdatedAt.ptr(),
				DeletedAt: wo.Option.DeletedAt.ptr(),
			}
		}

		switch {
		case wo.OptionID != nil:
			vo.OptionID = *wo.OptionID
		case vo.Option != nil:
			vo.OptionID = vo.Option.ID
		default:
			return &DecodeError{Path: path + ".option_id", Reason: "is required"}
		}
		v.Options = append(v.Options, vo)
		return nil
	})
	return v, err
}

func jsonError(prefix string, err error) *DecodeError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{
			Path:   join(prefix, typeErr.Field),
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			Err:    err,
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &DecodeError{
			Path:   prefix,
			Reason: fmt.Sprintf("invalid JSON at offset %d: %s", syntaxErr.Offset, syntaxErr.Error()),
			Err:    err,
		}
	}

	return &DecodeError{Path: prefix, Reason: err.Error(), Err: err}
}

func validationError(prefix string, err error) *DecodeError {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		path, msg := valErr.First()
		return &DecodeError{Path: join(prefix, path), Reason: msg, Err: err}
	}
	return &DecodeError{Path: prefix, Reason: err.Error(), Err: err}
}

func join(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	default:
		return prefix + "." + path
	}
}

func (t *timestamp) ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := time.Time(*t)
	return &v
}

func flex(s *flexString) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
