package outlier

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// fence is the IQR multiplier for the Tukey outlier fences.
const fence = 1.5

// percentile returns the p-th quantile (0 <= p <= 1) of sorted, linearly
// interpolating between the order statistics around rank p*(n-1).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if hi >= n {
		hi = n - 1
	}
	// a + (b-a)*w keeps equal neighbours exact
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// quartiles sorts a copy of values and returns Q1 and Q3.
func quartiles(values []float64) (q1, q3 float64) {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return percentile(cp, 0.25), percentile(cp, 0.75)
}

// skewness is the adjusted Fisher-Pearson sample skewness. ok is false when
// the statistic is undefined: fewer than three values or zero variance.
func skewness(values []float64) (float64, bool) {
	if len(values) < 3 {
		return math.NaN(), false
	}
	if floats.Min(values) == floats.Max(values) {
		return math.NaN(), false
	}
	s := stat.Skew(values, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return math.NaN(), false
	}
	return s, true
}
