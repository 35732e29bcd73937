package crawler

import (
	"context"
	"encoding/json"

	"github.com/nao1215/storeprofile/internal/model"
)

// CollectionsEndpoint is the public collection listing of a storefront.
const CollectionsEndpoint = "/collections.json"

// FetchCollections retrieves and normalizes every collection of the store.
//
// A 404 yields model.ErrNotAvailable, 401 and 403 yield model.ErrNotPublic,
// other statuses model.ErrBadStatus, and an empty listing model.ErrNoData,
// each wrapped in a *model.ScrapeError.
func FetchCollections(ctx context.Context, f Fetcher, base string, pageSize int) ([]model.CollectionRecord, int, error) {
	raw, requests, err := Paginate(ctx, f, base, CollectionsEndpoint, "collections", pageSize)
	if err != nil {
		return nil, requests, err
	}

	collections := NormalizeCollections(raw)
	if len(collections) == 0 {
		return nil, requests, &model.ScrapeError{URL: base + CollectionsEndpoint, Reason: model.ErrNoData}
	}
	return collections, requests, nil
}

// NormalizeCollections turns raw collection records into table rows.
// Records that are not JSON objects are dropped.
func NormalizeCollections(raw []json.RawMessage) []model.CollectionRecord {
	collections := make([]model.CollectionRecord, 0, len(raw))
	for _, r := range raw {
		m, ok := decodeObject(r)
		if !ok {
			continue
		}
		collections = append(collections, model.CollectionRecord{
			ID:             asString(m["id"]),
			Title:          asString(m["title"]),
			Handle:         asString(m["handle"]),
			BodyHTML:       asString(m["body_html"]),
			TemplateSuffix: asOptionalString(m["template_suffix"]),
			PublishedAt:    asString(m["published_at"]),
			UpdatedAt:      asString(m["updated_at"]),
			ProductsCount:  asCount(m["products_count"]),
		})
	}
	return collections
}
