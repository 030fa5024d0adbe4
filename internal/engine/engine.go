// Package engine wires the pipeline components (coverage binning, HMM fit,
// sensitivity estimation, candidate building, peak scoring) into the two
// runnable verbs, analyze (three-state HMM) and compare (five-state HMM),
// plus model persistence and output writing. It owns no algorithm of its
// own; it is the composition root other packages (notably cmd/omnipeak)
// call without re-deriving the wiring.
package engine

import (
	"sort"

	"github.com/JetBrains-Research/omnipeak/internal/blacklist"
	"github.com/JetBrains-Research/omnipeak/internal/candidate"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/errx"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	"github.com/JetBrains-Research/omnipeak/internal/hmm"
	"github.com/JetBrains-Research/omnipeak/internal/model"
	"github.com/JetBrains-Research/omnipeak/internal/score"
	"github.com/JetBrains-Research/omnipeak/internal/sensitivity"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Signal is the per-replicate coverage accessor the engine needs: one per
// HMM dimension, plus whichever single one is designated the scoring
// provider (dimProviders[0] by convention — see Run). It is the union of
// candidate.Signal and score.Provider, which *coverage.ReadBased and
// *coverage.SummaryBased already satisfy structurally.
type Signal interface {
	ID() string
	Layout() *genome.Layout
	Bin(name string) ([]int, error)
	Score(name string, start, end int) (int, error)
	ControlAvailable() bool
	ControlScore(name string, start, end int) (int, error)
}

// Run executes the full pipeline for one verb: fit (or load) the model,
// choose the sensitivity threshold, build candidates, score and filter
// peaks. dimProviders[i] supplies the i-th HMM dimension, group1 replicates
// first, then group2, for compare; dimProviders[0] also serves as the
// scoring provider peak scoring reads raw counts and control normalization
// from (the first replicate is authoritative for scoring). fi is the
// FitInfo the caller has already built from Options, used both to check a
// persisted model for reuse and to save a freshly fit one.
func Run(spec hmm.Spec, dimProviders []Signal, layout *genome.Layout, fi model.FitInfo, bl *blacklist.Blacklist, opts config.Options, c config.Constants, logger *logrus.Logger, cancel hmm.Cancel) ([]score.Peak, *model.Artifact, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if bl == nil {
		bl = blacklist.Empty()
	}

	chroms := buildChromSeqs(layout, dimProviders, logger)

	artifact, err := fitOrLoad(spec, chroms, fi, opts, c, logger, cancel)
	if err != nil {
		return nil, nil, err
	}
	if cancelled(cancel) {
		return nil, nil, &errx.CancelledError{Stage: "sensitivity estimation"}
	}

	orderedLogNull := orderedLogNull(layout, artifact.LogNull)
	result := sensitivity.Choose(orderedLogNull, c)
	logger.Infof("sensitivity: threshold=%.4f triangleFound=%v", result.Threshold, result.TriangleFound)

	summitThreshold := result.SummitThreshold
	if !result.HasSummitThreshold {
		summitThreshold = result.Threshold
	}
	scoringProvider := dimProviders[0]
	cands, gap, err := candidate.Build(layout, artifact.LogNull, scoringProvider, result.Threshold, opts.Gap, opts.Summits, summitThreshold, c)
	if err != nil {
		return nil, nil, errors.Wrap(err, "engine: building candidates")
	}
	logger.Infof("candidates: %d (gap=%d bins)", len(cands), gap)
	if cancelled(cancel) {
		return nil, nil, &errx.CancelledError{Stage: "candidate scoring"}
	}

	peaks, err := score.Score(cands, artifact.LogNull, scoringProvider, bl, opts.FDR, false, c)
	if err != nil {
		return nil, nil, errors.Wrap(err, "engine: scoring candidates")
	}
	sortPeaks(peaks)
	logRankTable(logger, peaks)

	if opts.BigWig {
		if err := writeBigWig(opts.OutPrefix+".bw", layout, scoringProvider, bl); err != nil {
			logger.Warnf("engine: %v", err)
		}
	}

	return peaks, artifact, nil
}

// normalizedBinner is the optional provider capability of emitting
// control-regressed per-bin counts; providers with a control track satisfy
// it, and the fitter observes the regressed counts instead of raw ones.
type normalizedBinner interface {
	ControlNormalizedBin(name string) ([]int, error)
}

// buildChromSeqs assembles the per-chromosome, per-dimension observation
// matrices the fitter needs from each dimension's own provider, over the
// unplaced-contig-filtered layout. A chromosome any dimension cannot bin,
// or whose treatment coverage is identically zero in every dimension, is
// dropped from the effective genome query; the rest proceed.
func buildChromSeqs(layout *genome.Layout, providers []Signal, logger *logrus.Logger) []hmm.ChromSeq {
	keep := layout.Filter(func(name string) bool { return !genome.IsUnplaced(name) })
	chroms := make([]hmm.ChromSeq, 0, len(keep.Names()))
	for _, name := range keep.Names() {
		dims := make([][]float64, len(providers))
		ok := true
		allZero := true
		for d, p := range providers {
			counts, err := binFor(p, name)
			if err != nil {
				ok = false
				break
			}
			vals := make([]float64, len(counts))
			for i, v := range counts {
				vals[i] = float64(v)
				if v != 0 {
					allZero = false
				}
			}
			dims[d] = vals
		}
		if !ok {
			continue
		}
		if allZero {
			logger.Warnf("engine: chromosome %s has no treatment coverage; skipping", name)
			continue
		}
		chroms = append(chroms, hmm.ChromSeq{Name: name, Dims: dims})
	}
	return chroms
}

func binFor(p Signal, name string) ([]int, error) {
	if nb, ok := p.(normalizedBinner); ok && p.ControlAvailable() {
		return nb.ControlNormalizedBin(name)
	}
	return p.Bin(name)
}

func cancelled(c hmm.Cancel) bool {
	if c == nil {
		return false
	}
	select {
	case <-c:
		return true
	default:
		return false
	}
}

// orderedLogNull flattens the per-chromosome log_null map into the
// sensitivity estimator's expected [][]float64 in layout's fixed
// chromosome order, so the sensitivity threshold does not depend on map
// iteration order.
func orderedLogNull(layout *genome.Layout, logNull map[string][]float64) [][]float64 {
	out := make([][]float64, 0, len(logNull))
	for _, name := range layout.Names() {
		if ln, ok := logNull[name]; ok {
			out = append(out, ln)
		}
	}
	return out
}

// sortPeaks orders the final list lexicographically by chromosome name
// then ascending start, regardless of worker interleaving upstream.
func sortPeaks(peaks []score.Peak) {
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Chrom != peaks[j].Chrom {
			return peaks[i].Chrom < peaks[j].Chrom
		}
		if peaks[i].Start != peaks[j].Start {
			return peaks[i].Start < peaks[j].Start
		}
		return peaks[i].End < peaks[j].End
	})
}
