// Package sitemap fetches and summarizes the XML sitemap of a storefront.
//
// Two document shapes are understood. A urlset lists page URLs with an
// optional lastmod. A sitemapindex lists child sitemaps, which are fetched
// and parsed as urlsets one level down; children that fail are skipped.
// Element names are matched by local name, so any namespace or prefix works.
package sitemap
