package cluster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/storeprofile/internal/model"
)

func ptr[T any](v T) *T { return &v }

// catalog returns two clearly separated groups of products.
func catalog() []model.ProductRecord {
	var products []model.ProductRecord
	for i := range 6 {
		products = append(products, model.ProductRecord{
			ID:                fmt.Sprintf("t%d", i),
			Title:             fmt.Sprintf("Cotton crew tee shirt %d", i),
			BodyHTML:          "<p>Soft <strong>cotton</strong> tee shirt with a crew neck.</p>",
			ProductType:       "Shirts",
			FirstVariantPrice: ptr(20.0 + float64(i)),
		})
	}
	for i := range 6 {
		products = append(products, model.ProductRecord{
			ID:          fmt.Sprintf("m%d", i),
			Title:       fmt.Sprintf("Ceramic coffee mug %d", i),
			BodyHTML:    "Glazed ceramic coffee mug, dishwasher safe.",
			ProductType: "",
		})
	}
	return products
}

func TestChooseK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n, k int
		want int
	}{
		{name: "small catalog gets two", n: 12, want: 2},
		{name: "hundred products", n: 100, want: 3},
		{name: "large catalog capped at ten", n: 5000, want: 10},
		{name: "explicit k wins", n: 100, k: 7, want: 7},
		{name: "explicit k capped at product count", n: 6, k: 9, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ChooseK(tt.n, tt.k))
		})
	}
}

func TestClusterTooFewProducts(t *testing.T) {
	t.Parallel()

	_, _, err := New().Cluster(catalog()[:4])
	require.Error(t, err)

	var cu *model.ClusteringUnavailable
	require.ErrorAs(t, err, &cu)
	assert.ErrorIs(t, err, model.ErrTooFewProducts)
}

func TestClusterSeparatesTopics(t *testing.T) {
	t.Parallel()

	products := catalog()
	out, summary, err := New(WithK(2)).Cluster(products)
	require.NoError(t, err)
	require.Len(t, out, len(products))

	for _, p := range products {
		assert.Nil(t, p.Cluster, "input table must not be modified")
	}

	shirts := *out[0].Cluster
	for i, p := range out {
		require.NotNil(t, p.Cluster)
		if i < 6 {
			assert.Equal(t, shirts, *p.Cluster, p.Title)
		} else {
			assert.NotEqual(t, shirts, *p.Cluster, p.Title)
		}
	}

	require.Equal(t, 2, summary.NClusters)
	require.Len(t, summary.Clusters, 2)

	tees := summary.Clusters[shirts]
	mugs := summary.Clusters[1-shirts]
	assert.Equal(t, 6, tees.Size)
	require.NotNil(t, tees.AvgPrice)
	assert.InDelta(t, 22.5, *tees.AvgPrice, 1e-9)
	assert.Equal(t, model.Counts{{Name: "Shirts", Count: 6}}, tees.TopProductTypes)
	assert.Len(t, tees.ExampleTitles, 5)
	assert.Equal(t, "Cotton crew tee shirt 0", tees.ExampleTitles[0])

	assert.Nil(t, mugs.AvgPrice)
	assert.Equal(t, model.Counts{{Name: model.UnspecifiedProductType, Count: 6}}, mugs.TopProductTypes)
}

func TestClusterIsReproducible(t *testing.T) {
	t.Parallel()

	a, _, err := New().Cluster(catalog())
	require.NoError(t, err)
	b, _, err := New().Cluster(catalog())
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, *a[i].Cluster, *b[i].Cluster)
	}
}

type failingPartitioner struct{ panics bool }

func (f failingPartitioner) Partition(_ Matrix, _ int) ([]int, error) {
	if f.panics {
		panic("boom")
	}
	return nil, errors.New("no convergence")
}

func TestClusterPartitionerFailures(t *testing.T) {
	t.Parallel()

	for _, panics := range []bool{false, true} {
		t.Run(fmt.Sprintf("panics=%v", panics), func(t *testing.T) {
			t.Parallel()

			_, _, err := New(WithPartitioner(failingPartitioner{panics: panics})).Cluster(catalog())
			var cu *model.ClusteringUnavailable
			require.ErrorAs(t, err, &cu)
		})
	}
}

func TestClusterEmptyVocabulary(t *testing.T) {
	t.Parallel()

	products := make([]model.ProductRecord, 5)
	for i := range products {
		products[i].Title = "the a"
	}

	_, _, err := New().Cluster(products)
	var cu *model.ClusteringUnavailable
	require.ErrorAs(t, err, &cu)
	assert.ErrorIs(t, err, errEmptyVocabulary)
}

func TestSummarizeEmptyCluster(t *testing.T) {
	t.Parallel()

	products := []model.ProductRecord{{Title: "a", Cluster: ptr(0)}}
	got := Summarize(products, 2, 5, 5)

	require.Len(t, got.Clusters, 2)
	assert.Equal(t, 0, got.Clusters[1].Size)
	assert.Empty(t, got.Clusters[1].ExampleTitles)
	assert.Nil(t, got.Clusters[1].AvgPrice)
}

func TestDistanceToMatchesDenseDistance(t *testing.T) {
	t.Parallel()

	row := SparseVector{Indices: []int{0, 3}, Values: []float64{0.6, 0.8}}
	centroid := []float64{0.5, 0.25, 0, 0.5}

	got := distanceTo(row, row.SquaredNorm(), centroid, squaredNorm(centroid))
	assert.InDelta(t, squaredDistance(densify(row, 4), centroid), got, 1e-12)
}

func TestKMeansLargeCatalog(t *testing.T) {
	t.Parallel()

	const cols = 5000
	m := Matrix{Cols: cols}
	for i := range 2000 {
		group := i % 10
		m.Rows = append(m.Rows, SparseVector{
			Indices: []int{group * 100, group*100 + 1 + i%7},
			Values:  []float64{0.8, 0.6},
		})
	}

	labels, err := NewKMeans(1, 42).Partition(m, 10)
	require.NoError(t, err)
	require.Len(t, labels, len(m.Rows))
	seen := map[int]bool{}
	for _, l := range labels {
		require.True(t, l >= 0 && l < 10, "label %d out of range", l)
		seen[l] = true
	}
	assert.Len(t, seen, 10)
}
