package statx

import (
	"math"
	"math/rand"
	"sort"
)

// DipTest implements a convex-hull approximation of Hartigan's dip
// statistic for unimodality: it measures the maximum deviation of the
// empirical CDF from the best-fitting unimodal CDF, built from the greatest
// convex minorant up to the modal crossing and the least concave majorant
// beyond it. A bootstrap p-value is estimated by resampling `bootstraps`
// synthetic samples uniformly over [min(data), max(data)] — the reference
// unimodal null used by the classic dip.test — and comparing their dip
// statistics to the observed one.
//
// rng must be supplied by the caller so results are reproducible; pass
// rand.New(rand.NewSource(seed)) for deterministic tests.
func DipTest(data []float64, bootstraps int, rng *rand.Rand) (dip, pValue float64) {
	dip = dipStatistic(data)
	if bootstraps <= 0 {
		return dip, math.NaN()
	}
	lo, hi := minMax(data)
	n := len(data)
	ge := 0
	sample := make([]float64, n)
	for b := 0; b < bootstraps; b++ {
		for i := range sample {
			sample[i] = lo + rng.Float64()*(hi-lo)
		}
		if dipStatistic(sample) >= dip {
			ge++
		}
	}
	pValue = float64(ge) / float64(bootstraps)
	return dip, pValue
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// dipStatistic computes the envelope-based dip statistic for one sample.
func dipStatistic(data []float64) float64 {
	n := len(data)
	if n < 4 {
		return 0
	}
	xs := append([]float64(nil), data...)
	sort.Float64s(xs)

	// Empirical CDF evaluated at each sorted sample point.
	ecdf := make([]float64, n)
	for i := range xs {
		ecdf[i] = float64(i+1) / float64(n)
	}

	gcm := lowerConvexEnvelope(xs, ecdf)
	lcm := upperConcaveEnvelope(xs, ecdf)

	// Locate the crossing point between the two envelopes; everything at
	// or left of it is judged against the GCM, everything right of it
	// against the LCM.
	cross := 0
	for i := 0; i < n; i++ {
		if gcm[i] >= lcm[i] {
			cross = i
			break
		}
		cross = i
	}

	var maxDev float64
	for i := 0; i <= cross; i++ {
		if d := math.Abs(ecdf[i] - gcm[i]); d > maxDev {
			maxDev = d
		}
	}
	for i := cross; i < n; i++ {
		if d := math.Abs(ecdf[i] - lcm[i]); d > maxDev {
			maxDev = d
		}
	}
	return maxDev / 2
}

// lowerConvexEnvelope returns, for each x_i, the value of the greatest
// convex minorant of the points (x, y) evaluated at x_i.
func lowerConvexEnvelope(xs, ys []float64) []float64 {
	n := len(xs)
	hullX := make([]float64, 0, n)
	hullY := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		for len(hullX) >= 2 {
			j := len(hullX)
			if cross2(hullX[j-2], hullY[j-2], hullX[j-1], hullY[j-1], xs[i], ys[i]) <= 0 {
				hullX = hullX[:j-1]
				hullY = hullY[:j-1]
				continue
			}
			break
		}
		hullX = append(hullX, xs[i])
		hullY = append(hullY, ys[i])
	}
	return interpolateEnvelope(xs, hullX, hullY)
}

// upperConcaveEnvelope returns, for each x_i, the value of the least
// concave majorant of the points (x, y) evaluated at x_i.
func upperConcaveEnvelope(xs, ys []float64) []float64 {
	n := len(xs)
	negY := make([]float64, n)
	for i, y := range ys {
		negY[i] = -y
	}
	lowerOfNeg := lowerConvexEnvelope(xs, negY)
	out := make([]float64, n)
	for i, v := range lowerOfNeg {
		out[i] = -v
	}
	return out
}

// cross2 is the z-component of the cross product (b-a) x (c-a); a positive
// value means c lies to the left of the directed line a->b (a left turn).
func cross2(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

// interpolateEnvelope linearly interpolates the piecewise-linear hull
// (hullX, hullY) at every point of xs. xs and hullX are both ascending.
func interpolateEnvelope(xs, hullX, hullY []float64) []float64 {
	out := make([]float64, len(xs))
	h := 0
	for i, x := range xs {
		for h < len(hullX)-2 && hullX[h+1] <= x {
			h++
		}
		if h >= len(hullX)-1 {
			out[i] = hullY[len(hullY)-1]
			continue
		}
		x0, x1 := hullX[h], hullX[h+1]
		y0, y1 := hullY[h], hullY[h+1]
		if x1 == x0 {
			out[i] = y1
			continue
		}
		t := (x - x0) / (x1 - x0)
		out[i] = y0 + t*(y1-y0)
	}
	return out
}
