package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/nao1215/storeprofile/internal/model"
)

// Paginate collects every record of a paginated JSON listing.
//
// It requests {base}{endpoint}?limit={pageSize}&page={n} for n = 1, 2, ...
// and reads the array stored under key. It stops after the first empty
// page or the first page shorter than pageSize; a full page always leads
// to another request. A missing key counts as an empty page.
//
// It returns the records in page order and the number of requests made.
// A failed request aborts the whole listing; nothing partial is returned.
// An empty listing is a *model.ScrapeError wrapping model.ErrNoData.
func Paginate(ctx context.Context, f Fetcher, base, endpoint, key string, pageSize int) ([]json.RawMessage, int, error) {
	if pageSize <= 0 {
		return nil, 0, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	var (
		records  []json.RawMessage
		requests int
	)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, requests, err
		}

		pageURL := fmt.Sprintf("%s%s?limit=%d&page=%d", base, endpoint, pageSize, page)
		body, err := f.Fetch(ctx, pageURL)
		requests++
		if err != nil {
			return nil, requests, err
		}

		batch, err := decodePage(body, key)
		if err != nil {
			return nil, requests, &model.ScrapeError{URL: pageURL, Reason: model.ErrMalformed, Err: err}
		}
		if len(batch) == 0 {
			break
		}

		records = append(records, batch...)
		if len(batch) < pageSize {
			break
		}
	}

	if len(records) == 0 {
		return nil, requests, &model.ScrapeError{URL: base + endpoint, Reason: model.ErrNoData}
	}
	return records, requests, nil
}

// decodePage extracts the array stored under key from a JSON object.
func decodePage(body []byte, key string) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	raw, ok := envelope[key]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("%q is not an array: %w", key, err)
	}
	return batch, nil
}
