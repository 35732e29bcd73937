package pipeline

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/nao1215/storeprofile/internal/cluster"
	"github.com/nao1215/storeprofile/internal/config"
	"github.com/nao1215/storeprofile/internal/crawler"
	"github.com/nao1215/storeprofile/internal/model"
)

// NewClient builds the storefront HTTP client described by cfg.
func NewClient(cfg *config.Config, logger *slog.Logger, opts ...crawler.ClientOption) *crawler.Client {
	base := []crawler.ClientOption{
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithRequestsPerSecond(cfg.RequestsPerSecond),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithHeaders(cfg.Headers),
		crawler.WithLogger(logger),
	}
	return crawler.NewClient(append(base, opts...)...)
}

// NewClusterer builds the text clusterer described by cfg.
func NewClusterer(cfg *config.Config, logger *slog.Logger) *cluster.Clusterer {
	return cluster.New(
		cluster.WithK(cfg.ClusterCount),
		cluster.WithPartitioner(cluster.NewKMeans(cfg.ClusterRestarts, cfg.ClusterSeed)),
		cluster.WithMaxFeatures(cfg.MaxFeatures),
		cluster.WithExamples(cfg.ClusterExamples, cfg.ClusterTopTypes),
		cluster.WithLogger(logger),
	)
}

// DefaultPipeline assembles the profiling pipeline:
//
//	products (hard) -> analysis (hard) -> clustering -> collections ->
//	sitemap -> tech stack -> artifacts (hard) -> history
//
// With cfg.ParallelSources the collections, sitemap and tech stack steps
// run concurrently. A nil persister or history store leaves out that step.
func DefaultPipeline(client crawler.Fetcher, cfg *config.Config, persister Persister, history HistoryStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	withLogger := WithStepLogger(logger)

	p := New(WithLogger(logger))
	p.AddStep(NewProductsStep(client, cfg.PageSize, withLogger))
	p.AddStep(NewAnalyzeStep(cfg.TopTags, withLogger))
	p.AddSoftStep(NewClusterStep(NewClusterer(cfg, logger), withLogger))

	sources := []Step{
		NewCollectionsStep(client, cfg.PageSize, cfg.TopCollections, withLogger),
		NewSitemapStep(client, cfg.SitemapExamples, withLogger),
		NewTechStackStep(client, withLogger),
	}
	if cfg.ParallelSources {
		p.AddStep(Concurrent("sources", sources...))
	} else {
		for _, s := range sources {
			p.AddSoftStep(s)
		}
	}

	if persister != nil {
		p.AddStep(NewPersistStep(persister, withLogger))
	}
	if history != nil {
		p.AddSoftStep(NewHistoryStep(history, withLogger))
	}
	return p
}

// NewRun creates a run with a fresh id for storeInput, honoring the
// sources cfg skips.
func NewRun(storeInput string, cfg *config.Config) *model.Run {
	run := model.NewRun(uuid.NewString(), storeInput)
	for _, s := range cfg.SkipSources {
		run.SkipSources[s] = true
	}
	return run
}

// Profiler profiles single stores with the default pipeline.
type Profiler struct {
	cfg        *config.Config
	persister  Persister
	history    HistoryStore
	httpClient *http.Client
	logger     *slog.Logger
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithPersister writes artifacts at the end of every run.
func WithPersister(persister Persister) ProfilerOption {
	return func(p *Profiler) {
		p.persister = persister
	}
}

// WithHistory saves every profile in store.
func WithHistory(store HistoryStore) ProfilerOption {
	return func(p *Profiler) {
		p.history = store
	}
}

// WithHTTPClient sets the http.Client used for storefront requests.
func WithHTTPClient(hc *http.Client) ProfilerOption {
	return func(p *Profiler) {
		p.httpClient = hc
	}
}

// WithProfilerLogger sets the logger.
func WithProfilerLogger(logger *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProfiler creates a Profiler. cfg holds the global settings; the
// per-store overrides of its config file are applied on every run.
func NewProfiler(cfg *config.Config, opts ...ProfilerOption) *Profiler {
	p := &Profiler{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run profiles one store. The run is returned even when it failed, so the
// caller can inspect its source outcomes; the error is the fatal one.
func (p *Profiler) Run(ctx context.Context, storeInput string) (*model.Run, error) {
	cfg := p.cfg.ForStore(storeInput)

	var clientOpts []crawler.ClientOption
	if p.httpClient != nil {
		clientOpts = append(clientOpts, crawler.WithHTTPClient(p.httpClient))
	}
	client := NewClient(cfg, p.logger, clientOpts...)

	run := NewRun(storeInput, cfg)
	err := DefaultPipeline(client, cfg, p.persister, p.history, p.logger).Execute(ctx, run)
	return run, err
}

// Profile profiles one store and returns its profile or the fatal error.
func (p *Profiler) Profile(ctx context.Context, storeInput string) (*model.StoreProfile, error) {
	run, err := p.Run(ctx, storeInput)
	if err != nil {
		return nil, err
	}
	return run.Profile, nil
}
