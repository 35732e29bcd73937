package crawler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// listingServer serves a paginated listing under path. pages[i] is the
// array returned for page i+1; later pages are empty.
type listingServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newListingServer(t *testing.T, path, key string, pages [][]map[string]any) *listingServer {
	t.Helper()

	ls := &listingServer{}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ls.hits.Add(1)
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}
		items := []map[string]any{}
		if page <= len(pages) {
			items = pages[page-1]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{key: items})
	})
	ls.Server = httptest.NewServer(mux)
	t.Cleanup(ls.Close)
	return ls
}

func makeItems(start, n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range n {
		items[i] = map[string]any{
			"id":    start + i,
			"title": fmt.Sprintf("Item %d", start+i),
		}
	}
	return items
}

func newTestClient() *Client {
	return NewClient(WithRequestsPerSecond(0))
}

func ptr(f float64) *float64 { return &f }

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
