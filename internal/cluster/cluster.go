package cluster

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/nao1215/storeprofile/internal/crawler"
	"github.com/nao1215/storeprofile/internal/model"
)

// MinProducts is the smallest catalog that is clustered.
const MinProducts = 5

// Clusterer groups products by the text of their title and description.
type Clusterer struct {
	vectorizer  *Vectorizer
	partitioner Partitioner

	// k fixes the cluster count; zero lets ChooseK decide.
	k int

	examples int
	topTypes int
	logger   *slog.Logger
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithK fixes the number of clusters. Zero or less restores the heuristic.
func WithK(k int) Option {
	return func(c *Clusterer) {
		c.k = max(k, 0)
	}
}

// WithPartitioner replaces the k-means partitioner.
func WithPartitioner(p Partitioner) Option {
	return func(c *Clusterer) {
		if p != nil {
			c.partitioner = p
		}
	}
}

// WithMaxFeatures caps the vocabulary size.
func WithMaxFeatures(n int) Option {
	return func(c *Clusterer) {
		c.vectorizer.MaxFeatures = n
	}
}

// WithExamples sets the number of example titles and product types kept per cluster.
func WithExamples(titles, types int) Option {
	return func(c *Clusterer) {
		if titles > 0 {
			c.examples = titles
		}
		if types > 0 {
			c.topTypes = types
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clusterer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Clusterer using TF-IDF with 5000 features and k-means with
// ten restarts seeded with 42.
func New(opts ...Option) *Clusterer {
	c := &Clusterer{
		vectorizer:  NewVectorizer(5000),
		partitioner: NewKMeans(10, 42),
		examples:    5,
		topTypes:    5,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChooseK returns the cluster count for n products. An explicit k wins;
// otherwise n/30 clamped to [2, 10]. The result never exceeds n.
func ChooseK(n, k int) int {
	if k <= 0 {
		k = min(max(n/30, 2), 10)
	}
	return min(k, n)
}

// Documents returns the clustering corpus: each product's title followed
// by the visible text of its description.
func Documents(products []model.ProductRecord) []string {
	docs := make([]string, len(products))
	for i, p := range products {
		docs[i] = p.Title + " " + crawler.ExtractText(p.BodyHTML)
	}
	return docs
}

// Cluster assigns every product a cluster and summarizes each cluster.
//
// The returned table is a copy of products with Cluster set. Every failure
// is a *model.ClusteringUnavailable; catalogs smaller than MinProducts wrap
// model.ErrTooFewProducts. A panic inside the partitioner is reported the
// same way.
func (c *Clusterer) Cluster(products []model.ProductRecord) (out []model.ProductRecord, summary model.ClusteringSummary, err error) {
	if len(products) < MinProducts {
		return nil, model.ClusteringSummary{}, &model.ClusteringUnavailable{
			Reason: fmt.Sprintf("%d products, need at least %d", len(products), MinProducts),
			Err:    model.ErrTooFewProducts,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			out, summary = nil, model.ClusteringSummary{}
			err = &model.ClusteringUnavailable{Reason: "partitioning panicked", Err: fmt.Errorf("%v", r)}
		}
	}()

	matrix, vocab, err := c.vectorizer.FitTransform(Documents(products))
	if err != nil {
		return nil, model.ClusteringSummary{}, &model.ClusteringUnavailable{Reason: "vectorizing", Err: err}
	}

	k := ChooseK(len(products), c.k)
	labels, err := c.partitioner.Partition(matrix, k)
	if err != nil {
		return nil, model.ClusteringSummary{}, &model.ClusteringUnavailable{Reason: "partitioning", Err: err}
	}
	if len(labels) != len(products) {
		return nil, model.ClusteringSummary{}, &model.ClusteringUnavailable{
			Reason: fmt.Sprintf("partitioner returned %d labels for %d products", len(labels), len(products)),
		}
	}

	out = slices.Clone(products)
	for i := range out {
		if labels[i] < 0 || labels[i] >= k {
			return nil, model.ClusteringSummary{}, &model.ClusteringUnavailable{
				Reason: fmt.Sprintf("label %d out of range [0, %d)", labels[i], k),
			}
		}
		label := labels[i]
		out[i].Cluster = &label
	}

	c.logger.Debug("products clustered", "products", len(out), "clusters", k, "vocabulary", len(vocab))
	return out, Summarize(out, k, c.examples, c.topTypes), nil
}

// Summarize describes clusters 0..k-1 of an already clustered table.
// Products without a cluster are ignored.
func Summarize(products []model.ProductRecord, k, examples, topTypes int) model.ClusteringSummary {
	summary := model.ClusteringSummary{NClusters: k, Clusters: make([]model.ClusterSummary, 0, k)}

	for id := range k {
		var (
			size   int
			sum    float64
			priced int
			types  []string
			titles = []string{}
		)
		for _, p := range products {
			if p.Cluster == nil || *p.Cluster != id {
				continue
			}
			size++
			if p.FirstVariantPrice != nil {
				sum += *p.FirstVariantPrice
				priced++
			}
			types = append(types, p.TypeLabel())
			if len(titles) < examples {
				titles = append(titles, p.Title)
			}
		}

		cs := model.ClusterSummary{
			ClusterID:       id,
			Size:            size,
			TopProductTypes: model.CountValues(types).Top(topTypes),
			ExampleTitles:   titles,
		}
		if priced > 0 {
			avg := sum / float64(priced)
			cs.AvgPrice = &avg
		}
		summary.Clusters = append(summary.Clusters, cs)
	}
	return summary
}
