package config

import (
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/storeprofile/internal/model"
)

// Default configuration values.
const (
	// DefaultPageSize is the largest page the public storefront endpoints serve.
	DefaultPageSize = 250

	// DefaultTimeout applies to each HTTP request, not to the whole run.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	// Product pages of 250 items with long descriptions can reach several MB.
	DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB

	// DefaultUserAgent identifies storeprofile in HTTP requests.
	DefaultUserAgent = "storeprofile/1.0 (+https://github.com/nao1215/storeprofile)"

	// DefaultRequestsPerSecond keeps the request rate polite.
	// Zero disables the limiter.
	DefaultRequestsPerSecond = 2.0

	// DefaultClusterSeed makes clustering reproducible across runs.
	DefaultClusterSeed = 42

	// DefaultClusterRestarts is the number of k-means initializations.
	// The run with the lowest inertia wins.
	DefaultClusterRestarts = 10

	// DefaultMaxFeatures caps the TF-IDF vocabulary.
	DefaultMaxFeatures = 5000

	// DefaultClusterExamples is the number of example titles per cluster.
	DefaultClusterExamples = 5

	// DefaultClusterTopTypes is the number of product types listed per cluster.
	DefaultClusterTopTypes = 5

	// DefaultSitemapExamples is the number of example URLs kept per URL type.
	DefaultSitemapExamples = 5

	// DefaultTopTags is the size of the tag frequency table.
	DefaultTopTags = 50

	// DefaultTopCollections is the size of the collection ranking.
	DefaultTopCollections = 20

	// DefaultOutputDir is the root of the per-store artifact directories.
	DefaultOutputDir = "data"

	// DefaultBatchSize is the number of stores profiled concurrently.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "storeprofile"
)

// Config holds all configuration options for storeprofile.
// It is populated from CLI flags and the config file and passed through
// the application rather than kept in global state.
type Config struct {
	// PageSize is the number of records requested per page.
	PageSize int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Longer bodies are truncated.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// RequestsPerSecond throttles requests to a store. Zero means unlimited.
	RequestsPerSecond float64

	// ClusterCount fixes the number of clusters. Zero lets the size of the
	// catalog decide.
	ClusterCount int

	// ClusterSeed seeds the k-means initialization.
	ClusterSeed uint64

	// ClusterRestarts is the number of k-means initializations.
	ClusterRestarts int

	// MaxFeatures caps the TF-IDF vocabulary size.
	MaxFeatures int

	// ClusterExamples is the number of example titles kept per cluster.
	ClusterExamples int

	// ClusterTopTypes is the number of product types listed per cluster.
	ClusterTopTypes int

	// SitemapExamples is the number of example URLs kept per URL type.
	SitemapExamples int

	// TopTags is the number of tags kept in the tag frequency table.
	TopTags int

	// TopCollections is the number of collections in the ranking.
	TopCollections int

	// OutputDir is the root directory for per-store artifacts.
	OutputDir string

	// BatchSize is the number of stores profiled concurrently.
	BatchSize int

	// ParallelSources fetches collections, sitemap and homepage concurrently.
	ParallelSources bool

	// SkipSources names sources that are not fetched. Their sections stay empty.
	SkipSources []string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONOutput prints the profile as JSON instead of the terminal summary.
	JSONOutput bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .storeprofile in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// StoreConfigs holds per-store overrides loaded from the config file.
	StoreConfigs *File

	// Pinned names options set explicitly on the command line.
	// Per-store overrides never replace a pinned option.
	Pinned map[string]bool

	// DBDir is the directory of the profile history database.
	// Defaults to the XDG data directory (~/.local/share/storeprofile on Linux).
	DBDir string

	// SaveToDB stores every successful profile in the history database.
	SaveToDB bool

	// Targets is the list of store URLs to profile.
	Targets []string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		PageSize:          DefaultPageSize,
		Timeout:           DefaultTimeout,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
		RequestsPerSecond: DefaultRequestsPerSecond,
		ClusterSeed:       DefaultClusterSeed,
		ClusterRestarts:   DefaultClusterRestarts,
		MaxFeatures:       DefaultMaxFeatures,
		ClusterExamples:   DefaultClusterExamples,
		ClusterTopTypes:   DefaultClusterTopTypes,
		SitemapExamples:   DefaultSitemapExamples,
		TopTags:           DefaultTopTags,
		TopCollections:    DefaultTopCollections,
		OutputDir:         DefaultOutputDir,
		BatchSize:         DefaultBatchSize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		Pinned:            map[string]bool{},
	}
}

// XDGDataDir returns the XDG data directory for storeprofile.
// On Linux: ~/.local/share/storeprofile
// On macOS: ~/Library/Application Support/storeprofile
// On Windows: %LOCALAPPDATA%\storeprofile
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for storeprofile.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}
	if c.ClusterCount < 0 || c.ClusterCount == 1 {
		return ErrInvalidClusterCount
	}
	if c.ClusterRestarts <= 0 {
		return ErrInvalidClusterRestarts
	}
	if c.MaxFeatures <= 0 {
		return ErrInvalidMaxFeatures
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	for _, s := range c.SkipSources {
		if !slices.Contains(SkippableSources, s) {
			return ErrUnknownSource
		}
	}
	return nil
}

// ForStore returns a copy of the configuration with the overrides for
// storeURL from the config file applied. Pinned options are kept.
func (c *Config) ForStore(storeURL string) *Config {
	out := *c
	out.Headers = maps.Clone(c.Headers)
	out.SkipSources = slices.Clone(c.SkipSources)
	if c.StoreConfigs == nil {
		return &out
	}

	sc := c.StoreConfigs.GetStoreConfig(storeURL)
	if sc.PageSize > 0 && !c.Pinned[OptionPageSize] {
		out.PageSize = sc.PageSize
	}
	if sc.ClusterCount > 0 && !c.Pinned[OptionClusterCount] {
		out.ClusterCount = sc.ClusterCount
	}
	if sc.UserAgent != "" && !c.Pinned[OptionUserAgent] {
		out.UserAgent = sc.UserAgent
	}
	if len(sc.Headers) > 0 {
		if out.Headers == nil {
			out.Headers = make(map[string]string, len(sc.Headers))
		}
		maps.Copy(out.Headers, sc.Headers)
	}
	for _, s := range sc.SkipSources {
		if !slices.Contains(out.SkipSources, s) {
			out.SkipSources = append(out.SkipSources, s)
		}
	}
	return &out
}

// Options that can be pinned from the command line.
const (
	OptionPageSize     = "page_size"
	OptionClusterCount = "cluster_count"
	OptionUserAgent    = "user_agent"
)

// SkippableSources lists the sources a user may skip.
// Products can never be skipped.
var SkippableSources = []string{
	model.SourceClustering,
	model.SourceCollections,
	model.SourceSitemap,
	model.SourceTechStack,
}
