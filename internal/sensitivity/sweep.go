// Package sensitivity chooses the log null-posterior threshold below
// which a bin counts as foreground: it scans candidate thresholds, builds
// the (candidate-count, average-length) curve, locates the sensitivity
// triangle on it, and picks the threshold at which newly appearing
// candidates are rarest.
package sensitivity

import (
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/runs"
)

// Curve is one full (threshold, candidate-count, average-length) sweep.
type Curve struct {
	Thresholds []float64
	Count      []int
	AvgLength  []float64
}

// masksFor builds, for a given threshold s, the genome-wide boolean mask
// (concatenated across chromosomes in a stable order) of bins with
// logNull <= s. A single false bin separates chromosomes so a run ending
// one chromosome never fuses with a run starting the next; the sweep
// aggregates with gap 0, so one separator suffices.
func masksFor(logNull [][]float64, s float64) []bool {
	var total int
	for _, chrom := range logNull {
		total += len(chrom) + 1
	}
	mask := make([]bool, 0, total)
	for _, chrom := range logNull {
		if len(mask) > 0 {
			mask = append(mask, false)
		}
		for _, v := range chrom {
			mask = append(mask, v <= s)
		}
	}
	return mask
}

// BuildSweep computes the sweep curve over a log-spaced set of thresholds
// between the global min and (clamped) max of logNull, re-running on a
// truncated range if the top of the sweep is degenerate (identical
// candidate count for more than DegenerateRunLength consecutive values).
func BuildSweep(logNull [][]float64, c config.Constants) Curve {
	min, max := globalMinMax(logNull, c.LogNullFloor)
	curve := sweepRange(logNull, min, max, c.SweepSize)
	if degenerateTail(curve.Count, c.DegenerateRunLength) {
		truncatedMax := firstDegenerateValue(curve)
		curve = sweepRange(logNull, min, truncatedMax, c.SweepSize)
	}
	return curve
}

func sweepRange(logNull [][]float64, min, max float64, n int) Curve {
	thresholds := logSpacedNegative(min, max, n)
	curve := Curve{Thresholds: thresholds, Count: make([]int, n), AvgLength: make([]float64, n)}
	for i, s := range thresholds {
		mask := masksFor(logNull, s)
		curve.Count[i] = runs.Count(mask, 0)
		curve.AvgLength[i] = runs.MeanLength(mask, 0)
	}
	return curve
}

// logSpacedNegative produces n thresholds between min and max (both <= 0,
// min <= max), spaced evenly in log-magnitude so resolution concentrates
// near the loose (max, near-zero) end of the sweep.
func logSpacedNegative(min, max float64, n int) []float64 {
	if n <= 1 {
		return []float64{max}
	}
	if min >= 0 {
		min = -1e-300
	}
	if max >= 0 {
		max = -1e-300
	}
	logMin := math.Log(-min)
	logMax := math.Log(-max)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		u := logMin + t*(logMax-logMin)
		out[i] = -math.Exp(u)
	}
	return out
}

func globalMinMax(logNull [][]float64, floor float64) (min, max float64) {
	min = 0
	max = math.Inf(-1)
	found := false
	for _, chrom := range logNull {
		for _, v := range chrom {
			if !found || v < min {
				min = v
			}
			if v > max {
				max = v
			}
			found = true
		}
	}
	if !found {
		return floor, floor
	}
	if max > floor {
		max = floor
	}
	return min, max
}

// degenerateTail reports whether the last runLength+1 entries of counts
// are all identical.
func degenerateTail(counts []int, runLength int) bool {
	n := len(counts)
	if n < runLength+1 {
		return false
	}
	last := counts[n-1]
	for i := n - runLength - 1; i < n; i++ {
		if counts[i] != last {
			return false
		}
	}
	return true
}

// firstDegenerateValue returns the threshold where the degenerate plateau
// begins, so the next sweep can be truncated to exclude it.
func firstDegenerateValue(c Curve) float64 {
	n := len(c.Count)
	last := c.Count[n-1]
	i := n - 1
	for i > 0 && c.Count[i-1] == last {
		i--
	}
	return c.Thresholds[i]
}
