// Package stats reduces bucket values to median and percentile summaries
package stats

import (
	"math"
	"sort"
)

// Median returns the middle value of values, or the mean of the two middle
// values for an even count. ok is false when there is no data.
func Median(values []float64) (median float64, ok bool) {
	sorted := sortedCopy(values)
	size := len(sorted)
	if size == 0 {
		return 0, false
	}

	center := size / 2
	if size%2 == 0 {
		return (sorted[center-1] + sorted[center]) / 2.0, true
	}
	return sorted[center], true
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between order statistics at rank p/100*(n-1) (R-7). ok is false when
// there is no data. p outside [0,100] is clamped.
func Percentile(values []float64, p float64) (float64, bool) {
	sorted := sortedCopy(values)
	if len(sorted) == 0 {
		return 0, false
	}
	return percentileSorted(sorted, p), true
}

func percentileSorted(sorted []float64, p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	// multiply before dividing so whole-number ranks such as 29*100/100 stay exact
	rank := p * float64(len(sorted)-1) / 100
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	// integral rank must return the element itself
	if lower == upper {
		return sorted[lower]
	}

	lo, hi := sorted[lower], sorted[upper]
	return lo + (hi-lo)*(rank-float64(lower))
}

// Summary aggregates a bucket's values
type Summary struct {
	HasData bool    `json:"has_data"`
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
}

// Summarize computes all summary statistics with a single sort.
func Summarize(values []float64) Summary {
	sorted := sortedCopy(values)
	n := len(sorted)
	if n == 0 {
		return Summary{}
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2.0
	}

	return Summary{
		HasData: true,
		Count:   n,
		Min:     sorted[0],
		Max:     sorted[n-1],
		Mean:    sum / float64(n),
		Median:  median,
		P95:     percentileSorted(sorted, 95),
		P99:     percentileSorted(sorted, 99),
	}
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
