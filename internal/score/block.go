// Package score assigns candidates their p-values, applies BH/BF
// multiple-testing correction, clips peak boundaries by local signal
// density, and emits the final Peak list.
package score

import (
	"sort"

	"github.com/JetBrains-Research/omnipeak/internal/candidate"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/runs"
	"github.com/JetBrains-Research/omnipeak/internal/statx"
)

// block is a sub-interval of a candidate (bin-relative to the candidate's
// own From) used for score aggregation.
type block struct {
	from, to int // bin-relative to the candidate
}

func (b block) len() int { return b.to - b.from }

// decomposeBlocks splits cand into score blocks: bins whose log_null falls
// at or below the candidate's own 50th-percentile log_null, aggregated
// with a small intra-block gap. An empty result (no bin qualifies, which
// can't happen since the median itself always qualifies, but is guarded
// anyway) falls back to the whole candidate as one block.
func decomposeBlocks(cand candidate.Candidate, logNull []float64, c config.Constants) []block {
	n := cand.Len()
	if n == 0 {
		return nil
	}
	window := logNull[cand.From:cand.To]
	threshold := statx.Percentile(window, c.BlockPercentile)

	mask := make([]bool, n)
	for i, v := range window {
		mask[i] = v <= threshold
	}
	intervals := runs.Aggregate(mask, c.BlockIntraGapBins)
	if len(intervals) == 0 {
		return []block{{from: 0, to: n}}
	}
	blocks := make([]block, len(intervals))
	for i, iv := range intervals {
		blocks[i] = block{from: iv.From, to: iv.To}
	}
	return blocks
}

// sortBlocksByLogP orders blocks ascending by their own log-p, the
// numerical-stability ordering the candidate-level Kahan mean requires.
func sortBlocksByLogP(blocks []block, logP []float64) {
	idx := make([]int, len(blocks))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return logP[idx[i]] < logP[idx[j]] })

	sortedBlocks := make([]block, len(blocks))
	sortedLogP := make([]float64, len(blocks))
	for rank, i := range idx {
		sortedBlocks[rank] = blocks[i]
		sortedLogP[rank] = logP[i]
	}
	copy(blocks, sortedBlocks)
	copy(logP, sortedLogP)
}
