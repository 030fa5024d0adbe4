package score

import (
	"sort"

	"github.com/JetBrains-Research/omnipeak/internal/config"
)

// densities holds the global background statistics boundary clipping
// compares each candidate's flank against.
type densities struct {
	avgSignal float64
	avgNoise  float64
	valid     bool // false when signal <= noise; clipping is then skipped
}

// computeDensities averages raw signal over bins inside any candidate
// (avgSignal) versus bins outside all candidates (avgNoise), across every
// chromosome in raw.
func computeDensities(raw map[string][]int, cands []candSpan) densities {
	inside := make(map[string]map[int]bool, len(raw))
	for _, c := range cands {
		m := inside[c.chrom]
		if m == nil {
			m = make(map[int]bool, c.to-c.from)
			inside[c.chrom] = m
		}
		for i := c.from; i < c.to; i++ {
			m[i] = true
		}
	}

	var signalSum, signalN, noiseSum, noiseN float64
	for chrom, bins := range raw {
		m := inside[chrom]
		for i, v := range bins {
			if m != nil && m[i] {
				signalSum += float64(v)
				signalN++
			} else {
				noiseSum += float64(v)
				noiseN++
			}
		}
	}
	d := densities{}
	if signalN > 0 {
		d.avgSignal = signalSum / signalN
	}
	if noiseN > 0 {
		d.avgNoise = noiseSum / noiseN
	}
	d.valid = d.avgSignal > d.avgNoise
	return d
}

// candSpan is the minimal bin-range view boundary clipping and density
// accounting need, decoupled from the candidate package's richer type.
type candSpan struct {
	chrom    string
	from, to int
}

// clipBounds shrinks [from, to) from either side, returning the clipped
// bin range. raw is the chromosome's full per-bin signal vector.
func clipBounds(from, to int, raw []int, d densities, c config.Constants) (int, int) {
	if !d.valid || to <= from {
		return from, to
	}
	maxClippedDensity := d.avgNoise + c.ClipFraction*(d.avgSignal-d.avgNoise)
	length := to - from
	maxSide := int(float64(length) * c.ClipMaxSidePct)

	fractions := append([]float64(nil), c.ClipShrinkFractions...)
	sort.Sort(sort.Reverse(sort.Float64Slice(fractions)))

	newFrom := from
	for _, f := range fractions {
		w := int(f + 0.5)
		if w < 1 {
			w = 1
		}
		if w > maxSide || newFrom+w >= to {
			continue
		}
		if sliceDensity(raw, newFrom, newFrom+w) < maxClippedDensity {
			newFrom += w
			break
		}
	}

	newTo := to
	for _, f := range fractions {
		w := int(f + 0.5)
		if w < 1 {
			w = 1
		}
		if w > maxSide || newTo-w <= newFrom {
			continue
		}
		if sliceDensity(raw, newTo-w, newTo) < maxClippedDensity {
			newTo -= w
			break
		}
	}
	return newFrom, newTo
}

func sliceDensity(raw []int, from, to int) float64 {
	if to <= from || from < 0 || to > len(raw) {
		return 0
	}
	var sum float64
	for i := from; i < to; i++ {
		sum += float64(raw[i])
	}
	return sum / float64(to-from)
}
