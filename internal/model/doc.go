// Package model defines the core data structures used throughout storeprofile.
//
// This package contains the following main types:
//   - ProductRecord and CollectionRecord: normalized catalog rows
//   - SitemapEntry and SitemapSummary: the SEO footprint of a store
//   - TechFingerprint: apps, pixels and theme detected on the homepage
//   - ClusteringSummary: the result of grouping products by their text
//   - StoreProfile: the aggregated profile written to disk
//   - Run: the mutable state a pipeline carries while profiling one store
//
// Models live in their own package so that the crawler, analyzer, cluster,
// pipeline and report packages can share them without import cycles.
// Every type is serializable to JSON for artifacts and the history database.
package model
