package analyzer

import (
	"sort"

	"github.com/nao1215/storeprofile/internal/model"
)

// SummarizeCollections computes the collections summary. topN limits the
// ranking of collections by product count.
func SummarizeCollections(collections []model.CollectionRecord, topN int) model.CollectionsSummary {
	withCounts := make([]model.TopCollection, 0, len(collections))
	templates := make([]string, len(collections))

	for i, c := range collections {
		templates[i] = c.TemplateLabel()
		if c.ProductsCount == nil {
			continue
		}
		withCounts = append(withCounts, model.TopCollection{
			Title:         c.Title,
			Handle:        c.Handle,
			ProductsCount: *c.ProductsCount,
		})
	}

	summary := model.CollectionsSummary{
		NCollections:                 len(collections),
		CollectionsWithProductCounts: len(withCounts),
		TemplateSuffixCounts:         model.CountValues(templates),
	}

	sort.SliceStable(withCounts, func(i, j int) bool {
		return withCounts[i].ProductsCount > withCounts[j].ProductsCount
	})
	if topN > 0 && len(withCounts) > topN {
		withCounts = withCounts[:topN]
	}
	summary.TopCollectionsByProducts = withCounts

	return summary
}
