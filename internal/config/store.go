package config

import (
	"maps"

	"github.com/nao1215/storeprofile/internal/model"
)

// StoreConfig holds overrides for a single store.
type StoreConfig struct {
	// PageSize overrides the global page size. Zero keeps the global value.
	PageSize int `yaml:"page_size,omitempty"`

	// ClusterCount fixes the number of clusters for this store.
	ClusterCount int `yaml:"cluster_count,omitempty"`

	// UserAgent overrides the global User-Agent.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Headers are extra HTTP headers sent to this store.
	Headers map[string]string `yaml:"headers,omitempty"`

	// SkipSources names sources that are not fetched for this store.
	SkipSources []string `yaml:"skip_sources,omitempty"`
}

// File represents the structure of the .storeprofile configuration file.
type File struct {
	// Stores maps a store host or URL to its overrides.
	// Keys are compared after URL normalization, so "shop.example.com" and
	// "https://shop.example.com/" address the same store.
	Stores map[string]StoreConfig `yaml:"stores,omitempty"`

	// Defaults apply to every store unless overridden in Stores.
	Defaults StoreConfig `yaml:"defaults,omitempty"`
}

// GetStoreConfig returns the configuration for a store.
// It merges the store-specific configuration with defaults.
func (cf *File) GetStoreConfig(storeURL string) StoreConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	sc, ok := cf.lookup(storeURL)
	if !ok {
		return result
	}

	if sc.PageSize != 0 {
		result.PageSize = sc.PageSize
	}
	if sc.ClusterCount != 0 {
		result.ClusterCount = sc.ClusterCount
	}
	if sc.UserAgent != "" {
		result.UserAgent = sc.UserAgent
	}
	if len(sc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, sc.Headers)
	}
	if len(sc.SkipSources) > 0 {
		result.SkipSources = sc.SkipSources
	}

	return result
}

func (cf *File) lookup(storeURL string) (StoreConfig, bool) {
	if sc, ok := cf.Stores[storeURL]; ok {
		return sc, true
	}
	want := model.NormalizeStoreURL(storeURL)
	for key, sc := range cf.Stores {
		if model.NormalizeStoreURL(key) == want {
			return sc, true
		}
	}
	return StoreConfig{}, false
}
