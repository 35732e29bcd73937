package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorizerTokenize(t *testing.T) {
	t.Parallel()

	v := NewVectorizer(0)
	got := v.Tokenize("The Organic Cotton T-Shirt, for SUMMER")

	assert.Equal(t, []string{
		"organic", "cotton", "shirt", "summer",
		"organic cotton", "cotton shirt", "shirt summer",
	}, got)
}

func TestVectorizerFitTransform(t *testing.T) {
	t.Parallel()

	v := NewVectorizer(0)
	m, vocab, err := v.FitTransform([]string{"red shoes", "blue shoes", "red hat"})
	require.NoError(t, err)

	assert.Equal(t, []string{"blue", "blue shoes", "hat", "red", "red hat", "red shoes", "shoes"}, vocab)
	assert.Equal(t, len(vocab), m.Cols)
	require.Len(t, m.Rows, 3)

	for i, row := range m.Rows {
		assert.InDelta(t, 1.0, math.Sqrt(row.SquaredNorm()), 1e-9, "row %d is not unit length", i)
		assert.IsIncreasing(t, row.Indices)
	}
}

func TestVectorizerMaxFeatures(t *testing.T) {
	t.Parallel()

	v := NewVectorizer(2)
	_, vocab, err := v.FitTransform([]string{"lamp lamp desk", "lamp chair"})
	require.NoError(t, err)

	// lamp appears three times; the ties at one occurrence break alphabetically.
	assert.Equal(t, []string{"chair", "lamp"}, vocab)
}

func TestKMeansPartition(t *testing.T) {
	t.Parallel()

	row := func(idx int) SparseVector { return SparseVector{Indices: []int{idx}, Values: []float64{1}} }
	m := Matrix{Cols: 3, Rows: []SparseVector{row(0), row(0), row(1), row(1), row(2)}}

	labels, err := NewKMeans(5, 7).Partition(m, 3)
	require.NoError(t, err)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[2], labels[3])
	assert.NotEqual(t, labels[0], labels[2])
	assert.NotEqual(t, labels[0], labels[4])
	assert.NotEqual(t, labels[2], labels[4])

	_, err = NewKMeans(1, 1).Partition(m, 6)
	assert.Error(t, err)
	_, err = NewKMeans(1, 1).Partition(Matrix{}, 2)
	assert.Error(t, err)
}
