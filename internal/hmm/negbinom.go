package hmm

import "math"

// negBinomLogPMF computes the log probability mass of the negative
// binomial distribution parameterized by mean and a "failures" dispersion
// r, so that variance = mean + mean^2/r. gonum's distuv package does not
// expose a negative-binomial distribution, so this is built directly on
// math.Lgamma.
func negBinomLogPMF(x float64, mean, r float64) float64 {
	if r <= 0 {
		r = 1e-6
	}
	if mean < 0 {
		mean = 0
	}
	p := r / (r + mean) // success probability in the (r,p) parameterization
	lg1, _ := math.Lgamma(x + r)
	lg2, _ := math.Lgamma(r)
	lg3, _ := math.Lgamma(x + 1)
	logP := math.Log(p)
	log1mP := math.Log1p(-p)
	return lg1 - lg2 - lg3 + r*logP + x*log1mP
}

// clampFailuresForMinVariance bounds r so that variance/mean stays at or
// above minRatio. Because variance/mean = 1 + mean/r, satisfying the
// inequality requires an upper bound on r, not a lower one.
func clampFailuresForMinVariance(mean, r, minRatio float64) float64 {
	if mean <= 0 {
		return r
	}
	maxR := mean / (minRatio - 1)
	if r > maxR {
		return maxR
	}
	if r <= 0 {
		return maxR
	}
	return r
}

// methodOfMomentsFailures estimates r from a sample mean and variance via
// the identity variance = mean + mean^2/r => r = mean^2/(variance-mean).
func methodOfMomentsFailures(mean, variance float64) float64 {
	if variance <= mean {
		return math.Inf(1) // essentially Poisson; treat as very large r
	}
	return mean * mean / (variance - mean)
}
