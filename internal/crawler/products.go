package crawler

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/storeprofile/internal/model"
)

// ProductsEndpoint is the public product listing of a storefront.
const ProductsEndpoint = "/products.json"

// FetchProducts retrieves and normalizes every product of the store at base.
// It returns the product table and the number of requests issued.
// An empty catalog is a *model.ScrapeError wrapping model.ErrNoData.
func FetchProducts(ctx context.Context, f Fetcher, base string, pageSize int) ([]model.ProductRecord, int, error) {
	raw, requests, err := Paginate(ctx, f, base, ProductsEndpoint, "products", pageSize)
	if err != nil {
		return nil, requests, err
	}

	products := NormalizeProducts(raw)
	if len(products) == 0 {
		return nil, requests, &model.ScrapeError{URL: base + ProductsEndpoint, Reason: model.ErrNoData}
	}
	return products, requests, nil
}

// NormalizeProducts turns raw product records into table rows.
// Records that are not JSON objects are dropped.
func NormalizeProducts(raw []json.RawMessage) []model.ProductRecord {
	products := make([]model.ProductRecord, 0, len(raw))
	for _, r := range raw {
		m, ok := decodeObject(r)
		if !ok {
			continue
		}
		products = append(products, normalizeProduct(m))
	}
	return products
}

func normalizeProduct(m map[string]any) model.ProductRecord {
	p := model.ProductRecord{
		ID:          asString(m["id"]),
		Title:       asString(m["title"]),
		Handle:      asString(m["handle"]),
		BodyHTML:    asString(m["body_html"]),
		Vendor:      asString(m["vendor"]),
		ProductType: asString(m["product_type"]),
		Tags:        NormalizeTags(m["tags"]),
		Variants:    normalizeVariants(m["variants"]),
		CreatedAt:   asString(m["created_at"]),
		PublishedAt: asString(m["published_at"]),
	}
	p.FirstVariantPrice = FirstVariantPrice(m["variants"])
	p.TitleLen = utf8.RuneCountInString(p.Title)
	p.DescLen = utf8.RuneCountInString(p.BodyHTML)
	return p
}

func normalizeVariants(v any) []model.Variant {
	list, ok := v.([]any)
	if !ok {
		return []model.Variant{}
	}
	variants := make([]model.Variant, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		variants = append(variants, model.Variant{
			ID:        asString(m["id"]),
			Title:     asString(m["title"]),
			Price:     asFloat(m["price"]),
			SKU:       asString(m["sku"]),
			Available: asBool(m["available"]),
		})
	}
	return variants
}

// FirstVariantPrice returns the parsed price of the first variant in a
// decoded variants value. It is nil when the value is not a non-empty list
// or the first price is not a finite number.
func FirstVariantPrice(variants any) *float64 {
	list, ok := variants.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return nil
	}
	return asFloat(first["price"])
}

// NormalizeTags converts the tags field to a list of trimmed, non-empty tags.
// A list keeps its order, a string is split on commas, and any other value
// yields an empty list.
func NormalizeTags(tags any) []string {
	out := []string{}
	switch t := tags.(type) {
	case []any:
		for _, item := range t {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(asString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return out
	}
}
