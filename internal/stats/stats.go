// Package stats provides the small statistical helpers shared by the signal
// detectors: peer-group quantiles and trailing window means.
package stats

import (
	"math"
	"sort"
)

// Quantile returns the q-quantile of values using nearest-rank selection,
// matching the aggregation semantics of the columnar engine. values is not
// modified. Returns 0 for an empty slice.
func Quantile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(n-1)
	idx := int(math.Round(pos))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Median returns the median of values, averaging the two middle elements for
// even-length input. values is not modified. Returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// RollingMean computes the trailing mean of xs over a fixed window. out[i]
// holds the mean of xs[i-window+1..i] and ok[i] is true only when a full
// window is available; a partial window never yields a value.
func RollingMean(xs []float64, window int) (out []float64, ok []bool) {
	out = make([]float64, len(xs))
	ok = make([]bool, len(xs))
	if window <= 0 {
		return out, ok
	}

	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
			ok[i] = true
		}
	}
	return out, ok
}
