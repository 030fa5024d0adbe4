package hmm

import (
	"math"
	"sort"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"gonum.org/v1/gonum/stat"
)

// InitializeFromData builds starting Params for spec using per-dimension
// observation vectors (genome-wide, one slice per dimension). Priors and
// transitions default to the literal three-state values for the analyze
// alphabet; for the five-state compare alphabet the same structure is
// generalized by spreading the residual Z/L/H mass across I and D
// symmetrically around the L/H defaults. Means are seeded from the median
// of the low/high fractions of nonzero bins per dimension; failures are
// seeded by method of moments.
func InitializeFromData(spec Spec, dims [][]float64, c config.Constants) *Params {
	p := NewParams(spec)

	switch spec.Kind {
	case KindAnalyze:
		p.PriorLog = logVec([]float64{0.75, 0.249, 0.001})
		p.TransLog = logMat([][]float64{
			{0.75, 0.2499, 0.0001},
			{0.2, 0.798, 0.002},
			{0.005, 0.015, 0.98},
		})
	case KindCompare:
		// Z keeps its three-state prior of 0.75; I/D are seeded as a
		// small symmetric sliver (0.0015 each) and L/H split the rest of
		// the non-Z mass evenly.
		p.PriorLog = logVec([]float64{0.75, 0.1235, 0.1235, 0.0015, 0.0015})
		p.TransLog = logMat([][]float64{
			{0.75, 0.12495, 0.12495, 0.00005, 0.00005},
			{0.1, 0.79, 0.09, 0.01, 0.01},
			{0.1, 0.09, 0.79, 0.01, 0.01},
			{0.005, 0.01, 0.01, 0.97, 0.005},
			{0.005, 0.01, 0.01, 0.005, 0.97},
		})
	}

	for d, values := range dims {
		nonzero := nonZeroValues(values)
		muLow := medianOfFraction(nonzero, c.LowFractionDefault, false)
		muHigh := medianOfFraction(nonzero, c.HighFractionDefault, true)
		if muHigh < muLow {
			muHigh = muLow
		}
		varLow := sampleVariance(nonzero, muLow)
		varHigh := sampleVariance(nonzero, muHigh)
		rLow := clampFailuresForMinVariance(muLow, methodOfMomentsFailures(muLow, varLow), c.MinVarianceOverMean)
		rHigh := clampFailuresForMinVariance(muHigh, methodOfMomentsFailures(muHigh, varHigh), c.MinVarianceOverMean)
		p.Low[d] = NBParam{Mean: muLow, Failures: rLow}
		p.High[d] = NBParam{Mean: muHigh, Failures: rHigh}
	}
	return p
}

func nonZeroValues(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x != 0 {
			out = append(out, x)
		}
	}
	return out
}

// medianOfFraction returns the median of the lowest (top=false) or highest
// (top=true) `fraction` portion of sorted values.
func medianOfFraction(xs []float64, fraction float64, top bool) float64 {
	if len(xs) == 0 {
		return 1e-3
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	var slice []float64
	if top {
		slice = sorted[n-k:]
	} else {
		slice = sorted[:k]
	}
	return stat.Quantile(0.5, stat.LinInterp, slice, nil)
}

// sampleVariance computes the sum-of-squares variance around the supplied
// mean (the low/high median seed, not necessarily xs' own arithmetic
// mean) — stat.Variance always centers on the latter, so it can't serve
// this off-center variance estimate.
func sampleVariance(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return mean + 1e-6
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	v := ss / float64(len(xs)-1)
	if v <= mean {
		return mean * 1.01 // guarantee a slightly overdispersed seed
	}
	return v
}

func logVec(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = safeLog(x)
	}
	return out
}

func logMat(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = logVec(r)
	}
	return out
}

func safeLog(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return math.Log(x)
}
