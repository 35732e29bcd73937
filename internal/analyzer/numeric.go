package analyzer

import (
	"math"
	"slices"

	"github.com/nao1215/storeprofile/internal/model"
)

// SummarizeNumeric describes the distribution of values. NaN and infinite
// values are ignored. It returns nil when no finite value remains.
func SummarizeNumeric(values []float64) *model.NumericSummary {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.Sort(sorted)

	n := float64(len(sorted))
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	std := 0.0
	if len(sorted) > 1 {
		sq := 0.0
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		std = math.Sqrt(sq / n)
	}

	return &model.NumericSummary{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: Quantile(sorted, 0.5),
		Std:    std,
		P25:    Quantile(sorted, 0.25),
		P75:    Quantile(sorted, 0.75),
	}
}

// Quantile returns the q-quantile of sorted values using linear
// interpolation between the closest ranks at position (n-1)*q.
// sorted must be non-empty and in ascending order.
func Quantile(sorted []float64, q float64) float64 {
	pos := float64(len(sorted)-1) * q
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
