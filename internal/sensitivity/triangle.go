package sensitivity

import (
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/runs"
)

// Result is the SE's final output: the chosen foreground threshold and,
// when a triangle was found, the secondary summit threshold.
type Result struct {
	Threshold          float64
	SummitThreshold    float64
	HasSummitThreshold bool
	TriangleFound      bool
	I1, I2, I3         int
}

// Choose runs the full estimator: sweep, triangle location, and the
// additive-candidate minimization that picks the final threshold.
func Choose(logNull [][]float64, c config.Constants) Result {
	curve := BuildSweep(logNull, c)
	i1, i2, i3, found := locateTriangle(curve, c)
	if !found {
		return Result{Threshold: c.DefaultFDRFallbackLn, TriangleFound: false}
	}
	tStar := additiveMinimum(logNull, curve.Thresholds, i1, i2)
	return Result{
		Threshold:          tStar,
		SummitThreshold:    curve.Thresholds[i1],
		HasSummitThreshold: true,
		TriangleFound:      true,
		I1:                 i1,
		I2:                 i2,
		I3:                 i3,
	}
}

// locateTriangle finds i1<i2<i3 maximizing the geometric mean of the
// absolute signed triangle areas (0,i1,i2) and (i2,i3,N-1) on the
// (log(1+n), log(1+L)) curve, then refines i1 and i3 toward i2.
func locateTriangle(curve Curve, c config.Constants) (i1, i2, i3 int, found bool) {
	n := len(curve.Count)
	if n < 3 {
		return 0, 0, 0, false
	}
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = math.Log1p(float64(curve.Count[i]))
		y[i] = math.Log1p(curve.AvgLength[i])
	}

	peak := argmax(curve.Count)
	minI1 := int(c.TriangleMinFractionI1 * float64(n))
	window := maxInt(2, n/10)

	bestScore := -1.0
	bestI1, bestI2, bestI3 := -1, -1, -1
	for i2c := maxInt(minI1+1, peak-window); i2c <= minInt(n-2, peak+window); i2c++ {
		a1, bi1 := bestLeftTriangle(x, y, minI1, i2c)
		a2, bi3 := bestRightTriangle(x, y, i2c, n-1)
		if a1 <= 0 || a2 <= 0 {
			continue
		}
		score := math.Sqrt(a1 * a2)
		if score > bestScore {
			bestScore = score
			bestI1, bestI2, bestI3 = bi1, i2c, bi3
		}
	}
	if bestI1 < 0 || bestI2 < 0 || bestI3 < 0 {
		return 0, 0, 0, false
	}

	// Refine i1, i3 toward i2: among points achieving at least 95% of the
	// best triangle area, keep the one closest to i2.
	i1 = refineLeft(x, y, minI1, bestI2, bestI1)
	i3 = refineRight(x, y, bestI2, n-1, bestI3)
	return i1, bestI2, i3, true
}

func bestLeftTriangle(x, y []float64, lo, mid int) (bestArea float64, bestI int) {
	bestI = -1
	for i := lo; i < mid; i++ {
		a := math.Abs(signedArea(x[0], y[0], x[i], y[i], x[mid], y[mid]))
		if a > bestArea {
			bestArea = a
			bestI = i
		}
	}
	return bestArea, bestI
}

func bestRightTriangle(x, y []float64, mid, hi int) (bestArea float64, bestI int) {
	bestI = -1
	for i := mid + 1; i <= hi; i++ {
		a := math.Abs(signedArea(x[mid], y[mid], x[i], y[i], x[hi], y[hi]))
		if a > bestArea {
			bestArea = a
			bestI = i
		}
	}
	return bestArea, bestI
}

func refineLeft(x, y []float64, lo, mid, current int) int {
	if current < 0 {
		return lo
	}
	bestArea := math.Abs(signedArea(x[0], y[0], x[current], y[current], x[mid], y[mid]))
	best := current
	for i := current + 1; i < mid; i++ {
		a := math.Abs(signedArea(x[0], y[0], x[i], y[i], x[mid], y[mid]))
		if a >= 0.95*bestArea {
			best = i
		}
	}
	return best
}

func refineRight(x, y []float64, mid, hi, current int) int {
	if current < 0 {
		return hi
	}
	bestArea := math.Abs(signedArea(x[mid], y[mid], x[current], y[current], x[hi], y[hi]))
	best := current
	for i := current - 1; i > mid; i-- {
		a := math.Abs(signedArea(x[mid], y[mid], x[i], y[i], x[hi], y[hi]))
		if a >= 0.95*bestArea {
			best = i
		}
	}
	return best
}

func signedArea(x0, y0, x1, y1, x2, y2 float64) float64 {
	return 0.5 * ((x1-x0)*(y2-y0) - (x2-x0)*(y1-y0))
}

// additiveMinimum implements step 5: over [i1,i2), find the threshold
// minimizing new(s)/total(s), where new(s) counts candidates at s that do
// not intersect any candidate from the next-stricter threshold (index-1).
func additiveMinimum(logNull [][]float64, thresholds []float64, i1, i2 int) float64 {
	if i2 <= i1 {
		if i1 < len(thresholds) {
			return thresholds[i1]
		}
		return thresholds[len(thresholds)-1]
	}
	best := thresholds[i1]
	bestRatio := math.Inf(1)
	prevMask := masksFor(logNull, thresholds[i1])
	prevCandidates := runs.Aggregate(prevMask, 0)
	for s := i1 + 1; s < i2; s++ {
		mask := masksFor(logNull, thresholds[s])
		cands := runs.Aggregate(mask, 0)
		total := len(cands)
		if total == 0 {
			prevCandidates = cands
			continue
		}
		newCount := 0
		for _, cand := range cands {
			intersects := false
			for _, prev := range prevCandidates {
				if cand.Overlaps(prev) {
					intersects = true
					break
				}
			}
			if !intersects {
				newCount++
			}
		}
		ratio := float64(newCount) / float64(total)
		if ratio < bestRatio {
			bestRatio = ratio
			best = thresholds[s]
		}
		prevCandidates = cands
	}
	return best
}

func argmax(xs []int) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
