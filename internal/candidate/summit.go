package candidate

import (
	"math"
	"sort"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/runs"
)

// gaussianKernel builds an area-normalized Gaussian kernel with sigma =
// bandwidth/2 and radius = ceil(bandwidth/2).
func gaussianKernel(bandwidth float64) []float64 {
	sigma := bandwidth / 2
	radius := int(math.Ceil(bandwidth / 2))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// smoothSignal convolves signal with kernel, clamping at the boundaries.
func smoothSignal(signal []float64, kernel []float64) []float64 {
	radius := len(kernel) / 2
	out := make([]float64, len(signal))
	for i := range signal {
		var acc float64
		for k, w := range kernel {
			j := i + k - radius
			if j < 0 {
				j = 0
			}
			if j >= len(signal) {
				j = len(signal) - 1
			}
			acc += w * signal[j]
		}
		out[i] = acc
	}
	return out
}

// localMaxima returns indices i where smoothed[i] is a strict local
// maximum (or a plateau maximum, reported once at the plateau's start).
func localMaxima(smoothed []float64) []int {
	var out []int
	n := len(smoothed)
	for i := 0; i < n; i++ {
		if i > 0 && smoothed[i] <= smoothed[i-1] {
			continue
		}
		j := i
		for j+1 < n && smoothed[j+1] == smoothed[i] {
			j++
		}
		if j+1 >= n || smoothed[j+1] < smoothed[i] {
			out = append(out, i)
		}
	}
	return out
}

const slopeEpsilon = 1e-9

// expandMode walks left/right from peak while the smoothed value strictly
// decreases (by more than slopeEpsilon per step) and stops at the first
// flat or rising step; a single flat step ends the walk, without waiting
// for a longer flat stretch.
func expandMode(smoothed []float64, peak int) (from, to int) {
	from = peak
	for from > 0 {
		slope := smoothed[from] - smoothed[from-1]
		if slope < -slopeEpsilon {
			from--
			continue
		}
		break
	}
	to = peak
	for to < len(smoothed)-1 {
		slope := smoothed[to+1] - smoothed[to]
		if slope < -slopeEpsilon {
			to++
			continue
		}
		break
	}
	return from, to + 1 // half-open
}

// FindSummits runs the Gaussian-kernel mode finder over signal (the raw
// per-bin coverage inside one candidate) and returns the resulting summit
// sub-ranges, enforcing minimum mode length and minimum inter-mode
// distance. An empty result means "no summit found; keep the candidate
// as-is".
func FindSummits(signal []float64, c config.Constants) []runs.Interval {
	if len(signal) == 0 {
		return nil
	}
	bandwidth := c.SummitBandwidthBins
	kernel := gaussianKernel(bandwidth)
	smoothed := smoothSignal(signal, kernel)

	minLen := int(math.Round(c.SummitMinModeLengthFactor * bandwidth))
	minDist := int(math.Round(c.SummitMinDistanceFactor * bandwidth))

	var modes []runs.Interval
	for _, peak := range localMaxima(smoothed) {
		from, to := expandMode(smoothed, peak)
		if to-from < minLen {
			grow := minLen - (to - from)
			left := grow / 2
			right := grow - left
			from -= left
			to += right
			if from < 0 {
				to += -from
				from = 0
			}
			if to > len(signal) {
				from -= to - len(signal)
				to = len(signal)
			}
			if from < 0 {
				from = 0
			}
		}
		modes = append(modes, runs.Interval{From: from, To: to})
	}
	if len(modes) == 0 {
		return nil
	}

	sort.Slice(modes, func(i, j int) bool { return modes[i].From < modes[j].From })
	return enforceMinDistance(modes, minDist)
}

// enforceMinDistance resolves conflicts between adjacent modes closer than
// minDist apart: overlapping modes are merged, and modes that are merely
// too close (but not overlapping) are trimmed equally from both sides.
func enforceMinDistance(modes []runs.Interval, minDist int) []runs.Interval {
	out := []runs.Interval{modes[0]}
	for _, m := range modes[1:] {
		last := &out[len(out)-1]
		gap := m.From - last.To
		if gap < 0 {
			// Overlap: merge.
			if m.To > last.To {
				last.To = m.To
			}
			continue
		}
		if gap < minDist {
			trim := (minDist - gap) / 2
			last.To -= trim
			m.From += minDist - gap - trim
			if last.To <= last.From {
				last.To = last.From + 1
			}
			if m.From >= m.To {
				m.From = m.To - 1
			}
		}
		out = append(out, m)
	}
	return out
}
