package model

import (
	"sync"
	"time"
)

// Source names used by the pipeline and in SourceResult.
const (
	SourceProducts    = "products"
	SourceAnalysis    = "analysis"
	SourceClustering  = "clustering"
	SourceCollections = "collections"
	SourceSitemap     = "sitemap"
	SourceTechStack   = "tech_stack"
	SourceArtifacts   = "artifacts"
	SourceHistory     = "history"
)

// SourceResult records how one source of a run ended.
type SourceResult struct {
	Source  string `json:"source"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	// Err is the failure, nil when OK or Skipped.
	Err error `json:"-"`
}

// Run carries the state of one profiling run through the pipeline.
//
// Steps that may run concurrently each write only their own fields.
// Sources is guarded by a mutex and must be updated through RecordSource.
type Run struct {
	ID        string
	StoreURL  string
	Slug      string
	StartedAt time.Time

	Profile *StoreProfile

	Products       []ProductRecord
	Collections    []CollectionRecord
	SitemapEntries []SitemapEntry
	Homepage       []byte

	// SkipSources names sources that must not run for this store.
	SkipSources map[string]bool

	// ArtifactDir is where the artifact writer stored the files, once written.
	ArtifactDir string

	mu       sync.Mutex
	sources  []SourceResult
	requests int
}

// NewRun creates a run for the given store input. The input is normalized.
func NewRun(id, storeInput string) *Run {
	storeURL := NormalizeStoreURL(storeInput)
	return &Run{
		ID:          id,
		StoreURL:    storeURL,
		Slug:        StoreSlug(storeURL),
		StartedAt:   time.Now(),
		Profile:     NewStoreProfile(storeURL),
		SkipSources: map[string]bool{},
	}
}

// RecordSource appends a source outcome. Safe for concurrent use.
func (r *Run) RecordSource(res SourceResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, res)
}

// Sources returns a copy of the recorded source outcomes in completion order.
func (r *Run) Sources() []SourceResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SourceResult, len(r.sources))
	copy(out, r.sources)
	return out
}

// Source returns the outcome recorded for name.
func (r *Run) Source(name string) (SourceResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.Source == name {
			return s, true
		}
	}
	return SourceResult{}, false
}

// AddRequests adds n to the number of HTTP requests issued for the
// product and collection tables. Safe for concurrent use.
func (r *Run) AddRequests(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests += n
}

// Requests returns the number of requests recorded with AddRequests.
func (r *Run) Requests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}

// Skipped reports whether the named source is configured to be skipped.
func (r *Run) Skipped(name string) bool {
	return r.SkipSources[name]
}
