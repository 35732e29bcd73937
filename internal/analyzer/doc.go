// Package analyzer derives descriptive statistics from the product and
// collection tables: numeric summaries, frequency tables of product types
// and tags, and the collections summary.
package analyzer
