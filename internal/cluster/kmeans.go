package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Partitioner assigns each row of a matrix to one of k groups.
// Labels are in [0, k).
type Partitioner interface {
	Partition(m Matrix, k int) ([]int, error)
}

// KMeans is a Partitioner minimizing the within-cluster sum of squared
// distances. Centroids are seeded with k-means++ and the run with the
// lowest inertia over Restarts initializations wins. The same Seed always
// produces the same labels for the same matrix.
type KMeans struct {
	Restarts int
	Seed     uint64
	MaxIter  int
	// Tol stops a run once the total centroid shift falls below it.
	Tol float64
}

// NewKMeans returns a KMeans with 300 iterations and a tolerance of 1e-4.
func NewKMeans(restarts int, seed uint64) *KMeans {
	return &KMeans{Restarts: restarts, Seed: seed, MaxIter: 300, Tol: 1e-4}
}

var errNoRows = errors.New("no rows to partition")

// Partition implements Partitioner.
func (km *KMeans) Partition(m Matrix, k int) ([]int, error) {
	n := len(m.Rows)
	if n == 0 {
		return nil, errNoRows
	}
	if k < 1 || k > n {
		return nil, fmt.Errorf("cannot make %d clusters from %d rows", k, n)
	}

	restarts := max(km.Restarts, 1)
	norms := make([]float64, n)
	for i, r := range m.Rows {
		norms[i] = r.SquaredNorm()
	}

	var (
		best        []int
		bestInertia = math.Inf(1)
	)
	for run := range restarts {
		rng := rand.New(rand.NewPCG(km.Seed, uint64(run)))
		labels, inertia := km.run(m, norms, k, rng)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best, nil
}

func (km *KMeans) run(m Matrix, norms []float64, k int, rng *rand.Rand) ([]int, float64) {
	centroids := seedCentroids(m, norms, k, rng)
	labels := make([]int, len(m.Rows))
	dist := make([]float64, len(m.Rows))

	maxIter := max(km.MaxIter, 1)
	for range maxIter {
		assign(m, norms, centroids, labels, dist)
		fillEmpty(m, norms, centroids, labels, dist)

		next := updateCentroids(m, labels, k)
		shift := 0.0
		for c := range centroids {
			shift += squaredDistance(centroids[c], next[c])
		}
		centroids = next
		if shift <= km.Tol {
			break
		}
	}

	inertia := assign(m, norms, centroids, labels, dist)
	return labels, inertia
}

// seedCentroids picks k rows with the k-means++ rule: each next centroid
// is drawn with probability proportional to its squared distance from the
// closest centroid chosen so far.
func seedCentroids(m Matrix, norms []float64, k int, rng *rand.Rand) [][]float64 {
	n := len(m.Rows)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, densify(m.Rows[rng.IntN(n)], m.Cols))

	closest := make([]float64, n)
	first := squaredNorm(centroids[0])
	for i := range closest {
		closest[i] = distanceTo(m.Rows[i], norms[i], centroids[0], first)
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range closest {
			total += d
		}

		pick := rng.IntN(n)
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range closest {
				target -= d
				if target <= 0 {
					pick = i
					break
				}
			}
		}

		c := densify(m.Rows[pick], m.Cols)
		cn := squaredNorm(c)
		centroids = append(centroids, c)
		for i := range closest {
			closest[i] = min(closest[i], distanceTo(m.Rows[i], norms[i], c, cn))
		}
	}
	return centroids
}

// assign labels every row with its nearest centroid and returns the inertia.
func assign(m Matrix, norms []float64, centroids [][]float64, labels []int, dist []float64) float64 {
	cnorms := make([]float64, len(centroids))
	for c, centroid := range centroids {
		cnorms[c] = squaredNorm(centroid)
	}

	inertia := 0.0
	for i, r := range m.Rows {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := distanceTo(r, norms[i], centroid, cnorms[c]); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
		dist[i] = bestDist
		inertia += bestDist
	}
	return inertia
}

// fillEmpty moves the row farthest from its centroid into each empty cluster.
func fillEmpty(m Matrix, norms []float64, centroids [][]float64, labels []int, dist []float64) {
	sizes := make([]int, len(centroids))
	for _, l := range labels {
		sizes[l]++
	}
	for c, size := range sizes {
		if size > 0 {
			continue
		}
		far := -1
		for i, d := range dist {
			if sizes[labels[i]] > 1 && (far < 0 || d > dist[far]) {
				far = i
			}
		}
		if far < 0 {
			return
		}
		sizes[labels[far]]--
		sizes[c]++
		labels[far] = c
		dist[far] = 0
		centroids[c] = densify(m.Rows[far], m.Cols)
	}
}

func updateCentroids(m Matrix, labels []int, k int) [][]float64 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, m.Cols)
	}
	for i, r := range m.Rows {
		l := labels[i]
		counts[l]++
		for j, idx := range r.Indices {
			sums[l][idx] += r.Values[j]
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
	}
	return sums
}

func densify(v SparseVector, cols int) []float64 {
	d := make([]float64, cols)
	for i, idx := range v.Indices {
		d[idx] = v.Values[i]
	}
	return d
}

// distanceTo is the squared Euclidean distance between a sparse row and a
// dense centroid, given both squared norms. It costs O(nnz) of the row.
func distanceTo(v SparseVector, rowNorm float64, centroid []float64, centroidNorm float64) float64 {
	return max(rowNorm-2*v.Dot(centroid)+centroidNorm, 0)
}

func squaredNorm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return sum
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
