package score

import (
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/candidate"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	"github.com/JetBrains-Research/omnipeak/internal/statx"
)

// Provider is the narrow slice of coverage.Provider the scorer needs: raw
// per-bin treatment counts, range scores, and optional control scores.
// Declared locally so this package never imports coverage.
type Provider interface {
	Bin(name string) ([]int, error)
	Score(name string, start, end int) (int, error)
	ControlAvailable() bool
	ControlScore(name string, start, end int) (int, error)
	Layout() *genome.Layout
}

// Blacklist reports whether [start,end) on chrom intersects any excluded
// region; candidates that overlap are dropped before scoring.
type Blacklist interface {
	Overlaps(chrom string, start, end int) bool
}

// candidateScore bundles the per-candidate working state threaded through
// block scoring, correction, and clipping.
type candidateScore struct {
	cand       candidate.Candidate
	blocks     []block
	blockLogP  []float64
	logP       float64
	value      float64
	modelTotal float64 // Σ log_null over the whole candidate, the Value fallback
}

// Score runs the full scoring pipeline over cands and returns the final
// Peak list in candidate order (pre-sort is the caller's responsibility,
// done once globally by the engine across chromosomes).
func Score(cands []candidate.Candidate, logNull map[string][]float64, provider Provider, bl Blacklist, fdr float64, useBF bool, c config.Constants) ([]Peak, error) {
	filtered := make([]candidate.Candidate, 0, len(cands))
	for _, cand := range cands {
		start, end := cand.BaseRange()
		if bl != nil && bl.Overlaps(cand.Chrom, start, end) {
			continue
		}
		filtered = append(filtered, cand)
	}

	rawByChrom := make(map[string][]int)
	if provider != nil {
		for _, name := range provider.Layout().Names() {
			v, err := provider.Bin(name)
			if err == nil {
				rawByChrom[name] = v
			}
		}
	}
	spans := make([]candSpan, len(filtered))
	for i, cand := range filtered {
		spans[i] = candSpan{chrom: cand.Chrom, from: cand.From, to: cand.To}
	}
	dens := computeDensities(rawByChrom, spans)

	tail := newPoissonTail(c)
	scores := make([]candidateScore, 0, len(filtered))
	for _, cand := range filtered {
		ln := logNull[cand.Chrom]
		cs := candidateScore{cand: cand}
		for _, v := range ln[cand.From:cand.To] {
			cs.modelTotal += v
		}

		blocks := decomposeBlocks(cand, ln, c)
		blockLogP := make([]float64, len(blocks))
		for i, b := range blocks {
			blockLogP[i] = scoreBlock(cand, b, ln, rawByChrom[cand.Chrom], provider, dens, tail, c)
		}
		sortBlocksByLogP(blocks, blockLogP)

		var num statx.KahanSum
		var den statx.KahanSum
		for i, b := range blocks {
			w := float64(b.len())
			num.Add(blockLogP[i] * w)
			den.Add(w)
		}
		cs.logP = cs.modelTotal
		if den.Sum() > 0 {
			cs.logP = num.Sum() / den.Sum()
		}
		cs.blocks = blocks
		cs.blockLogP = blockLogP
		cs.value = candidateValue(cand, ln, rawByChrom[cand.Chrom], provider, dens, cs)
		scores = append(scores, cs)
	}

	logP := make([]float64, len(scores))
	for i, cs := range scores {
		logP[i] = cs.logP
	}
	var logQ []float64
	if useBF {
		logQ = bonferroniLog(logP)
	} else {
		logQ = benjaminiHochbergLog(logP)
	}

	logFDR := math.Log(fdr)
	peaks := make([]Peak, 0, len(scores))
	for i, cs := range scores {
		if logP[i] > logFDR || logQ[i] > logFDR {
			continue
		}
		start, end := cs.cand.BaseRange()
		if raw, ok := rawByChrom[cs.cand.Chrom]; ok {
			start, end = clipCandidateRange(cs.cand, raw, dens, c)
		}
		negLog10P := -logP[i] / math.Ln10
		negLog10Q := -logQ[i] / math.Ln10
		s := int(math.Min(1000, math.Floor(negLog10Q)))
		if s < 0 {
			s = 0
		}
		peaks = append(peaks, Peak{
			Chrom:     cs.cand.Chrom,
			Start:     start,
			End:       end,
			Value:     cs.value,
			NegLog10P: negLog10P,
			NegLog10Q: negLog10Q,
			Score:     s,
			logP:      logP[i],
			logQ:      logQ[i],
		})
	}
	return peaks, nil
}

// scoreBlock combines the block's model log-p with the Poisson signal
// tail via the geometric mean -sqrt(model*signal); both inputs are
// non-positive, so the combination is well-defined and non-positive.
func scoreBlock(cand candidate.Candidate, b block, ln []float64, raw []int, provider Provider, dens densities, tail *poissonTail, c config.Constants) float64 {
	var modelLogP float64
	for _, v := range ln[cand.From+b.from : cand.From+b.to] {
		modelLogP += v
	}

	bpStart, bpEnd := blockBaseRange(cand, b)
	k, haveK := blockCount(cand.Chrom, bpStart, bpEnd, provider, raw, cand)
	if !haveK {
		return modelLogP
	}

	var lambda float64
	haveLambda := false
	if provider != nil && provider.ControlAvailable() {
		ctrl, err := provider.ControlScore(cand.Chrom, bpStart, bpEnd)
		if err == nil {
			lambda = float64(ctrl) + 1
			haveLambda = true
		}
	}
	if !haveLambda && dens.valid {
		lambda = dens.avgNoise*float64(b.len()) + 1
		haveLambda = true
	}
	if !haveLambda {
		// No control and no noise baseline: the model log-p alone is
		// returned. It ranks blocks consistently but is not on the
		// Poisson tail's scale.
		return modelLogP
	}

	signalLogP := tail.upperTail(k+1, lambda)
	if math.IsInf(signalLogP, -1) || math.IsInf(signalLogP, 1) {
		return modelLogP
	}
	return -math.Sqrt(modelLogP * signalLogP)
}

func blockBaseRange(cand candidate.Candidate, b block) (start, end int) {
	layout := cand.Layout()
	start, _, _ = layout.BinRange(cand.Chrom, cand.From+b.from)
	_, end, _ = layout.BinRange(cand.Chrom, cand.From+b.to-1)
	return start, end
}

func blockCount(chrom string, start, end int, provider Provider, raw []int, cand candidate.Candidate) (int, bool) {
	if provider != nil {
		s, err := provider.Score(chrom, start, end)
		if err == nil {
			return int(math.Ceil(float64(s))), true
		}
	}
	if raw == nil {
		return 0, false
	}
	layout := cand.Layout()
	b := layout.BinSize()
	firstBin := start / b
	lastBin := (end - 1) / b
	var sum int
	for k := firstBin; k <= lastBin && k < len(raw); k++ {
		sum += raw[k]
	}
	return sum, true
}

// candidateValue computes the emitted value field: enrichment over the
// control (or noise baseline) when one is known, else the negated model
// log-p total.
func candidateValue(cand candidate.Candidate, ln []float64, raw []int, provider Provider, dens densities, cs candidateScore) float64 {
	start, end := cand.BaseRange()
	score, haveScore := blockCount(cand.Chrom, start, end, provider, raw, cand)
	if !haveScore {
		return -cs.modelTotal
	}
	if provider != nil && provider.ControlAvailable() {
		ctrl, err := provider.ControlScore(cand.Chrom, start, end)
		if err == nil {
			return (float64(score) + 1) / (float64(ctrl) + 1)
		}
	}
	if dens.valid {
		return (float64(score) + 1) / (dens.avgNoise*float64(cand.Len()) + 1)
	}
	return -cs.modelTotal
}

func clipCandidateRange(cand candidate.Candidate, raw []int, dens densities, c config.Constants) (start, end int) {
	from, to := clipBounds(cand.From, cand.To, raw, dens, c)
	layout := cand.Layout()
	start, _, _ = layout.BinRange(cand.Chrom, from)
	_, end, _ = layout.BinRange(cand.Chrom, to-1)
	return start, end
}
