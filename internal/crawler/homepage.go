package crawler

import (
	"context"
	"strings"
)

// FetchHomepage retrieves the raw homepage document of the store at base.
// A non-2xx status is a *model.ScrapeError carrying the status.
func FetchHomepage(ctx context.Context, f Fetcher, base string) ([]byte, error) {
	return f.Fetch(ctx, strings.TrimRight(base, "/")+"/")
}
