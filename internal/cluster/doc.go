// Package cluster groups products by the text of their titles and
// descriptions. Documents are vectorized with TF-IDF over unigrams and
// bigrams and partitioned with k-means.
package cluster
