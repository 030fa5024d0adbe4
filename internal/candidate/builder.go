package candidate

import (
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	"github.com/JetBrains-Research/omnipeak/internal/runs"
)

// Signal is the minimal accessor the summit pass needs: raw per-bin
// coverage for a chromosome, independent of which provider produced it.
type Signal interface {
	Bin(name string) ([]int, error)
}

// Build runs the full candidate pipeline: chromosome filtering, threshold
// masking, gap estimation (or a caller override), run aggregation, and the
// optional summit-refining pass. In summit mode a candidate that produced
// summits is replaced by one candidate per summit sub-range; one that
// produced none is kept as-is.
func Build(layout *genome.Layout, logNull map[string][]float64, signal Signal, threshold float64, callerGap *int, summitsMode bool, summitThreshold float64, c config.Constants) ([]Candidate, int, error) {
	keep := layout.Filter(func(name string) bool { return !genome.IsUnplaced(name) })

	gMax := int(math.Ceil(c.FragmentationGapMaxBP / float64(layout.BinSize())))
	globalMask := concatMask(keep, logNull, threshold, gMax+1)
	gap, _, _ := EstimateGap(globalMask, layout.BinSize(), callerGap, summitsMode, c)

	var candidates []Candidate
	for _, name := range keep.Names() {
		ln := logNull[name]
		if ln == nil {
			continue
		}
		mask := make([]bool, len(ln))
		for i, v := range ln {
			mask[i] = v <= threshold
		}
		for _, iv := range runs.Aggregate(mask, gap) {
			cand := fromInterval(name, iv, layout)
			if summitsMode && signal != nil {
				cand = refineWithSummits(cand, ln, signal, summitThreshold, c)
			}
			if len(cand.SubBlocks) > 0 {
				for _, sb := range cand.SubBlocks {
					candidates = append(candidates, New(name, sb.From, sb.To, layout))
				}
				continue
			}
			candidates = append(candidates, cand)
		}
	}
	return candidates, gap, nil
}

// concatMask flattens every chromosome's threshold mask into one vector,
// separating chromosomes with enough false bins that no merge gap can
// join runs across a chromosome boundary.
func concatMask(layout *genome.Layout, logNull map[string][]float64, threshold float64, separator int) []bool {
	var mask []bool
	for _, name := range layout.Names() {
		if len(mask) > 0 {
			mask = append(mask, make([]bool, separator)...)
		}
		for _, v := range logNull[name] {
			mask = append(mask, v <= threshold)
		}
	}
	return mask
}

// refineWithSummits replaces cand with its summit sub-blocks when a
// secondary, stricter threshold is available: bins at or below
// summitThreshold within the candidate seed the kernel-density mode
// finder.
func refineWithSummits(cand Candidate, ln []float64, signal Signal, summitThreshold float64, c config.Constants) Candidate {
	raw, err := signal.Bin(cand.Chrom)
	if err != nil || cand.To > len(raw) {
		return cand
	}

	// Restrict to the stricter sub-mask within the candidate before
	// seeding the kernel-density search.
	strictMask := make([]bool, cand.Len())
	for i := range strictMask {
		strictMask[i] = ln[cand.From+i] <= summitThreshold
	}
	seeds := runs.Aggregate(strictMask, 0)
	if len(seeds) == 0 {
		return cand
	}

	var sub []runs.Interval
	for _, seed := range seeds {
		window := make([]float64, seed.Len())
		for i := range window {
			window[i] = float64(raw[cand.From+seed.From+i])
		}
		modes := FindSummits(window, c)
		for _, m := range modes {
			sub = append(sub, runs.Interval{From: cand.From + seed.From + m.From, To: cand.From + seed.From + m.To})
		}
	}
	if len(sub) == 0 {
		return cand
	}
	cand.SubBlocks = sub
	return cand
}
