package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/storeprofile/internal/analyzer"
	"github.com/nao1215/storeprofile/internal/cluster"
	"github.com/nao1215/storeprofile/internal/crawler"
	"github.com/nao1215/storeprofile/internal/model"
	"github.com/nao1215/storeprofile/internal/sitemap"
	"github.com/nao1215/storeprofile/internal/techstack"
)

// stepBase holds what every step shares.
type stepBase struct {
	logger *slog.Logger
}

// StepOption configures a step.
type StepOption func(*stepBase)

// WithStepLogger sets the logger of a step.
func WithStepLogger(logger *slog.Logger) StepOption {
	return func(b *stepBase) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func newStepBase(opts []StepOption) stepBase {
	b := stepBase{logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// ProductsStep fetches and normalizes the product catalog.
// It is the only load-bearing source of a run.
type ProductsStep struct {
	stepBase
	client   crawler.Fetcher
	pageSize int
}

// NewProductsStep creates a ProductsStep.
func NewProductsStep(client crawler.Fetcher, pageSize int, opts ...StepOption) *ProductsStep {
	return &ProductsStep{stepBase: newStepBase(opts), client: client, pageSize: pageSize}
}

// Name returns the step name.
func (s *ProductsStep) Name() string {
	return model.SourceProducts
}

// Do fetches /products.json page by page.
func (s *ProductsStep) Do(ctx context.Context, run *model.Run) error {
	products, requests, err := crawler.FetchProducts(ctx, s.client, run.StoreURL, s.pageSize)
	run.AddRequests(requests)
	if err != nil {
		return err
	}
	run.Products = products
	s.logger.Info("fetched products", "store", run.StoreURL, "count", len(products), "requests", requests)
	return nil
}

// AnalyzeStep computes the numeric and categorical product summaries.
type AnalyzeStep struct {
	stepBase
	topTags int
	now     func() time.Time
}

// NewAnalyzeStep creates an AnalyzeStep keeping the topTags most frequent tags.
func NewAnalyzeStep(topTags int, opts ...StepOption) *AnalyzeStep {
	return &AnalyzeStep{stepBase: newStepBase(opts), topTags: topTags, now: time.Now}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return model.SourceAnalysis
}

// Do fills the product part of the profile and stamps its generation time.
func (s *AnalyzeStep) Do(_ context.Context, run *model.Run) error {
	run.Profile.ProductAnalysis = analyzer.AnalyzeProducts(run.Products, s.topTags)
	run.Profile.GeneratedAt = s.now().UTC()
	return nil
}

// ClusterStep groups the products by their text.
type ClusterStep struct {
	stepBase
	clusterer *cluster.Clusterer
}

// NewClusterStep creates a ClusterStep.
func NewClusterStep(clusterer *cluster.Clusterer, opts ...StepOption) *ClusterStep {
	return &ClusterStep{stepBase: newStepBase(opts), clusterer: clusterer}
}

// Name returns the step name.
func (s *ClusterStep) Name() string {
	return model.SourceClustering
}

// Do assigns clusters. On failure the product table keeps nil clusters.
func (s *ClusterStep) Do(_ context.Context, run *model.Run) error {
	products, summary, err := s.clusterer.Cluster(run.Products)
	if err != nil {
		return err
	}
	run.Products = products
	run.Profile.Clustering = &summary
	s.logger.Debug("clustered products", "store", run.StoreURL, "clusters", summary.NClusters)
	return nil
}

// CollectionsStep fetches and summarizes the collections.
type CollectionsStep struct {
	stepBase
	client   crawler.Fetcher
	pageSize int
	topN     int
}

// NewCollectionsStep creates a CollectionsStep ranking the topN largest collections.
func NewCollectionsStep(client crawler.Fetcher, pageSize, topN int, opts ...StepOption) *CollectionsStep {
	return &CollectionsStep{stepBase: newStepBase(opts), client: client, pageSize: pageSize, topN: topN}
}

// Name returns the step name.
func (s *CollectionsStep) Name() string {
	return model.SourceCollections
}

// Do fetches /collections.json page by page.
func (s *CollectionsStep) Do(ctx context.Context, run *model.Run) error {
	collections, requests, err := crawler.FetchCollections(ctx, s.client, run.StoreURL, s.pageSize)
	run.AddRequests(requests)
	if err != nil {
		return err
	}
	summary := analyzer.SummarizeCollections(collections, s.topN)
	run.Collections = collections
	run.Profile.Collections = &summary
	s.logger.Info("fetched collections", "store", run.StoreURL, "count", len(collections))
	return nil
}

// SitemapStep fetches and summarizes the sitemap.
type SitemapStep struct {
	stepBase
	fetcher  *sitemap.Fetcher
	examples int
}

// NewSitemapStep creates a SitemapStep keeping up to examples URLs per type.
func NewSitemapStep(client crawler.Fetcher, examples int, opts ...StepOption) *SitemapStep {
	b := newStepBase(opts)
	return &SitemapStep{
		stepBase: b,
		fetcher:  sitemap.NewFetcher(client, sitemap.WithLogger(b.logger)),
		examples: examples,
	}
}

// Name returns the step name.
func (s *SitemapStep) Name() string {
	return model.SourceSitemap
}

// Do fetches /sitemap.xml and its children.
func (s *SitemapStep) Do(ctx context.Context, run *model.Run) error {
	entries, err := s.fetcher.Fetch(ctx, run.StoreURL)
	if err != nil {
		return err
	}
	summary := sitemap.Summarize(entries, s.examples)
	run.SitemapEntries = entries
	run.Profile.Sitemap = &summary
	s.logger.Info("fetched sitemap", "store", run.StoreURL, "urls", summary.TotalURLs)
	return nil
}

// TechStackStep fingerprints the homepage.
type TechStackStep struct {
	stepBase
	client   crawler.Fetcher
	detector *techstack.Detector
}

// NewTechStackStep creates a TechStackStep.
func NewTechStackStep(client crawler.Fetcher, opts ...StepOption) *TechStackStep {
	b := newStepBase(opts)
	return &TechStackStep{
		stepBase: b,
		client:   client,
		detector: techstack.NewDetector(techstack.WithLogger(b.logger)),
	}
}

// Name returns the step name.
func (s *TechStackStep) Name() string {
	return model.SourceTechStack
}

// Do fetches the homepage once and matches it against the signatures.
func (s *TechStackStep) Do(ctx context.Context, run *model.Run) error {
	doc, err := crawler.FetchHomepage(ctx, s.client, run.StoreURL)
	if err != nil {
		return err
	}
	fp := s.detector.Detect(doc)
	run.Homepage = doc
	run.Profile.TechStack = &fp
	s.logger.Info("fingerprinted homepage", "store", run.StoreURL, "apps", len(fp.AppsDetected))
	return nil
}

// Persister writes the artifacts of a finished run.
type Persister interface {
	WriteAll(ctx context.Context, run *model.Run) error
}

// PersistStep hands the assembled profile and tables to a Persister.
type PersistStep struct {
	stepBase
	persister Persister
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(persister Persister, opts ...StepOption) *PersistStep {
	return &PersistStep{stepBase: newStepBase(opts), persister: persister}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return model.SourceArtifacts
}

// Do writes the artifacts.
func (s *PersistStep) Do(ctx context.Context, run *model.Run) error {
	return s.persister.WriteAll(ctx, run)
}

// HistoryStore keeps past profiles.
type HistoryStore interface {
	SaveProfile(ctx context.Context, run *model.Run) error
}

// HistoryStep records the profile in the history database.
type HistoryStep struct {
	stepBase
	store HistoryStore
}

// NewHistoryStep creates a HistoryStep.
func NewHistoryStep(store HistoryStore, opts ...StepOption) *HistoryStep {
	return &HistoryStep{stepBase: newStepBase(opts), store: store}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return model.SourceHistory
}

// Do saves the profile.
func (s *HistoryStep) Do(ctx context.Context, run *model.Run) error {
	return s.store.SaveProfile(ctx, run)
}
