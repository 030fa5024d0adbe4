package coverage

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Regression holds the fitted linear-rescaling parameters that turn raw
// control counts into a baseline subtracted from treatment: scale
// s = sum(T)/sum(C), and beta in [0,1] chosen to minimize the absolute
// Pearson correlation between the regressed signal and the rescaled
// control.
type Regression struct {
	Scale float64
	Beta  float64
}

// FitRegression computes s and, when estimateBeta is true, the
// correlation-minimizing beta by scanning beta in steps of 0.01. treatment
// and control are genome-wide per-bin vectors in matching bin order.
func FitRegression(treatment, control []float64, estimateBeta bool) Regression {
	sumT, sumC := sumFloats(treatment), sumFloats(control)
	var s float64
	if sumC > 0 {
		s = sumT / sumC
	}
	if !estimateBeta || s == 0 {
		return Regression{Scale: s, Beta: 0}
	}

	bestBeta := 0.0
	bestAbsCorr := math.Inf(1)
	regressed := make([]float64, len(treatment))
	scaledControl := make([]float64, len(control))
	for i, c := range control {
		scaledControl[i] = s * c
	}
	for step := 0; step <= 100; step++ {
		beta := float64(step) * 0.01
		for i := range treatment {
			regressed[i] = treatment[i] - beta*scaledControl[i]
		}
		corr := stat.Correlation(regressed, scaledControl, nil)
		absCorr := math.Abs(corr)
		if math.IsNaN(absCorr) {
			continue
		}
		if absCorr < bestAbsCorr {
			bestAbsCorr = absCorr
			bestBeta = beta
		}
	}
	return Regression{Scale: s, Beta: bestBeta}
}

// NormalizedScore returns max(0, T - beta*s*C) rounded to the nearest
// integer.
func (r Regression) NormalizedScore(treatment, control int) int {
	v := float64(treatment) - r.Beta*r.Scale*float64(control)
	if v < 0 {
		v = 0
	}
	return int(math.Round(v))
}

func sumFloats(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
