package sitemap

import (
	"net/url"
	"strings"

	"github.com/nao1215/storeprofile/internal/model"
)

// classifiers are checked in order; the first path fragment found wins.
// Products come before collections because product pages are often
// published under /collections/<handle>/products/<handle>.
var classifiers = []struct {
	fragment string
	urlType  model.URLType
}{
	{fragment: "/products/", urlType: model.URLTypeProduct},
	{fragment: "/collections/", urlType: model.URLTypeCollection},
	{fragment: "/blogs/", urlType: model.URLTypeBlog},
	{fragment: "/pages/", urlType: model.URLTypePage},
}

// Classify returns the URL type of a sitemap location based on its path.
func Classify(loc string) model.URLType {
	path := loc
	if u, err := url.Parse(loc); err == nil {
		path = u.Path
	}
	path = strings.ToLower(path)

	for _, c := range classifiers {
		if strings.Contains(path, c.fragment) {
			return c.urlType
		}
	}
	return model.URLTypeOther
}

// Summarize computes the SEO footprint of a list of sitemap entries.
//
// LatestLastmod is the lexicographic maximum of the lastmod strings.
// That is chronological for the W3C datetime format sitemaps use, and
// arbitrary for anything else.
func Summarize(entries []model.SitemapEntry, maxExamples int) model.SitemapSummary {
	types := make([]string, 0, len(entries))
	examples := make(map[model.URLType][]string)
	var latest *string

	for _, e := range entries {
		t := Classify(e.Loc)
		types = append(types, string(t))

		if len(examples[t]) < maxExamples {
			examples[t] = append(examples[t], e.Loc)
		} else if _, ok := examples[t]; !ok {
			examples[t] = []string{}
		}

		if e.LastMod != nil && *e.LastMod != "" {
			if latest == nil || *e.LastMod > *latest {
				lm := *e.LastMod
				latest = &lm
			}
		}
	}

	return model.SitemapSummary{
		TotalURLs:     len(entries),
		ByType:        model.CountValues(types),
		LatestLastmod: latest,
		ExampleURLs:   examples,
	}
}
