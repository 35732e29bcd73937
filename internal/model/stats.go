package model

// NumericSummary describes the distribution of a numeric column.
// Percentiles use linear interpolation between closest ranks.
type NumericSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	// Std is the population standard deviation; 0 for a single value.
	Std float64 `json:"std"`
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
}

// TopCollection is one entry of the collections ranking.
type TopCollection struct {
	Title         string `json:"title"`
	Handle        string `json:"handle"`
	ProductsCount int64  `json:"products_count"`
}

// CollectionsSummary describes the collection catalog.
type CollectionsSummary struct {
	NCollections                 int             `json:"n_collections"`
	CollectionsWithProductCounts int             `json:"collections_with_product_counts"`
	TopCollectionsByProducts     []TopCollection `json:"top_collections_by_products"`
	TemplateSuffixCounts         Counts          `json:"template_suffix_counts"`
}

// ClusterSummary describes one cluster of products.
type ClusterSummary struct {
	ClusterID int `json:"cluster_id"`
	Size      int `json:"size"`
	// AvgPrice is nil when no member has a price.
	AvgPrice        *float64 `json:"avg_price"`
	TopProductTypes Counts   `json:"top_product_types"`
	ExampleTitles   []string `json:"example_titles"`
}

// ClusteringSummary is the result of grouping products by their text.
type ClusteringSummary struct {
	NClusters int              `json:"n_clusters"`
	Clusters  []ClusterSummary `json:"clusters"`
}
