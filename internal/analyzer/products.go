package analyzer

import (
	"github.com/nao1215/storeprofile/internal/model"
)

// AnalyzeProducts computes the product part of a store profile.
// topTags limits the tag table; zero or less keeps every tag.
func AnalyzeProducts(products []model.ProductRecord, topTags int) model.ProductAnalysis {
	prices := make([]float64, 0, len(products))
	titleLens := make([]float64, 0, len(products))
	descLens := make([]float64, 0, len(products))

	for _, p := range products {
		if p.FirstVariantPrice != nil {
			prices = append(prices, *p.FirstVariantPrice)
		}
		titleLens = append(titleLens, float64(p.TitleLen))
		descLens = append(descLens, float64(p.DescLen))
	}

	return model.ProductAnalysis{
		NProducts:              len(products),
		PriceStats:             SummarizeNumeric(prices),
		TitleLengthStats:       SummarizeNumeric(titleLens),
		DescriptionLengthStats: SummarizeNumeric(descLens),
		ProductTypes:           ProductTypeCounts(products),
		TopTags:                TagCounts(products, topTags),
	}
}

// ProductTypeCounts counts products per type, with blank types counted
// as model.UnspecifiedProductType.
func ProductTypeCounts(products []model.ProductRecord) model.Counts {
	types := make([]string, len(products))
	for i, p := range products {
		types[i] = p.TypeLabel()
	}
	return model.CountValues(types)
}

// TagCounts counts tag occurrences over all products and keeps the topN
// most frequent. Ties keep the order in which tags were first seen.
func TagCounts(products []model.ProductRecord, topN int) model.Counts {
	var tags []string
	for _, p := range products {
		tags = append(tags, p.Tags...)
	}
	return model.CountValues(tags).Top(topN)
}
