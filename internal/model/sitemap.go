package model

// URLType classifies a sitemap URL by its path.
type URLType string

const (
	URLTypeProduct    URLType = "product"
	URLTypeCollection URLType = "collection"
	URLTypeBlog       URLType = "blog"
	URLTypePage       URLType = "page"
	URLTypeOther      URLType = "other"
)

// URLTypes lists every URLType in report order.
var URLTypes = []URLType{URLTypeProduct, URLTypeCollection, URLTypeBlog, URLTypePage, URLTypeOther}

// SitemapEntry is one <url> element of a sitemap.
type SitemapEntry struct {
	Loc     string  `json:"loc"`
	LastMod *string `json:"lastmod"`
}

// SitemapSummary is the SEO footprint derived from the sitemap entries.
type SitemapSummary struct {
	TotalURLs int `json:"total_urls"`
	// ByType counts URLs per URLType, most frequent first.
	ByType Counts `json:"by_type"`
	// LatestLastmod is the greatest lastmod string, compared lexicographically.
	LatestLastmod *string `json:"latest_lastmod"`
	// ExampleURLs holds up to a few first-seen URLs per type.
	ExampleURLs map[URLType][]string `json:"example_urls"`
}
