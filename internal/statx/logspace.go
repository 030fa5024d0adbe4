package statx

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// LogSumExpSlice computes log(sum(exp(xs))) without overflow, the
// primitive the HMM forward-backward recursion and the null-state
// posterior aggregation both reduce to. It takes a slice rather than
// variadic arguments to avoid the copy on hot paths (per-bin posterior
// aggregation over up to K states, called once per bin per chromosome).
func LogSumExpSlice(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	max := floats.Max(xs)
	if math.IsInf(max, -1) {
		return math.Inf(-1)
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}

// Percentile returns the p-th percentile (0<=p<=1) of xs: the element at
// index floor(p*(n-1)) of a sorted copy, without interpolation. It backs
// the score blocks' median log-null split.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
