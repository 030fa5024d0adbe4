package hmm

import (
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/statx"
)

// accumulator carries the soft (expected) sufficient statistics Baum-Welch
// needs across every chromosome before a single reestimation step.
type accumulator struct {
	spec Spec

	priorSum []float64 // expected count of being in state k at t=0, per sequence summed
	nSeq     int

	transNum [][]float64 // expected transitions i->j
	transDen []float64   // expected time spent in i (excluding last bin)

	// Per-dimension, per-level (Low/High) weighted sums for mean/variance
	// reestimation via method of moments on soft-assigned observations.
	weightSum  [2][]float64 // [level][dim]
	weightedX  [2][]float64
	weightedXX [2][]float64
}

func newAccumulator(spec Spec) *accumulator {
	K := spec.K
	trans := make([][]float64, K)
	for i := range trans {
		trans[i] = make([]float64, K)
	}
	a := &accumulator{
		spec:     spec,
		priorSum: make([]float64, K),
		transNum: trans,
		transDen: make([]float64, K),
	}
	for lvl := 0; lvl < 2; lvl++ {
		a.weightSum[lvl] = make([]float64, spec.D)
		a.weightedX[lvl] = make([]float64, spec.D)
		a.weightedXX[lvl] = make([]float64, spec.D)
	}
	return a
}

// accumulate folds one chromosome's forward/backward results into the
// running sufficient statistics.
func (a *accumulator) accumulate(p *Params, dims [][]float64, alpha, beta [][]float64) {
	T := len(alpha)
	K := a.spec.K
	gamma := posterior(alpha, beta)
	a.nSeq++
	for k := 0; k < K; k++ {
		a.priorSum[k] += math.Exp(gamma[0][k])
	}

	scratch := make([]float64, K*K)
	for t := 0; t < T-1; t++ {
		obsNext := observationAt(dims, t+1)
		emitNext := make([]float64, K)
		for k := 0; k < K; k++ {
			emitNext[k] = p.EmissionLogProb(k, obsNext)
		}
		logZ := statx.LogSumExpSlice(alpha[T-1])
		// xi[i][j] = alpha[t][i] + trans[i][j] + emit(j,obs[t+1]) + beta[t+1][j] - logZ
		idx := 0
		for i := 0; i < K; i++ {
			for j := 0; j < K; j++ {
				scratch[idx] = alpha[t][i] + p.TransLog[i][j] + emitNext[j] + beta[t+1][j] - logZ
				idx++
			}
		}
		idx = 0
		for i := 0; i < K; i++ {
			for j := 0; j < K; j++ {
				xi := math.Exp(scratch[idx])
				a.transNum[i][j] += xi
				idx++
			}
			a.transDen[i] += math.Exp(gamma[t][i])
		}
	}

	for t := 0; t < T; t++ {
		obs := observationAt(dims, t)
		for d := 0; d < a.spec.D; d++ {
			// Weight Low/High by the soft probability of being in any
			// state that draws dimension d from that level.
			var wLow, wHigh float64
			for s := 1; s < K; s++ {
				if s == StateZ {
					continue
				}
				g := math.Exp(gamma[t][s])
				if a.spec.LevelForState(s, d) == Low {
					wLow += g
				} else {
					wHigh += g
				}
			}
			x := obs[d]
			a.weightSum[Low][d] += wLow
			a.weightedX[Low][d] += wLow * x
			a.weightedXX[Low][d] += wLow * x * x
			a.weightSum[High][d] += wHigh
			a.weightedX[High][d] += wHigh * x
			a.weightedXX[High][d] += wHigh * x * x
		}
	}
}

// merge folds another chromosome's accumulator into a, used to combine
// per-chromosome accumulators computed on separate threadpool workers back
// into the single running total the M-step reestimates from.
func (a *accumulator) merge(b *accumulator) {
	a.nSeq += b.nSeq
	for k := range a.priorSum {
		a.priorSum[k] += b.priorSum[k]
	}
	for i := range a.transNum {
		for j := range a.transNum[i] {
			a.transNum[i][j] += b.transNum[i][j]
		}
		a.transDen[i] += b.transDen[i]
	}
	for lvl := 0; lvl < 2; lvl++ {
		for d := range a.weightSum[lvl] {
			a.weightSum[lvl][d] += b.weightSum[lvl][d]
			a.weightedX[lvl][d] += b.weightedX[lvl][d]
			a.weightedXX[lvl][d] += b.weightedXX[lvl][d]
		}
	}
}

// reestimate produces a new Params from accumulated statistics, the
// Baum-Welch M-step.
func (a *accumulator) reestimate(prev *Params, c config.Constants) *Params {
	p := NewParams(a.spec)
	K := a.spec.K

	totalPrior := sum(a.priorSum)
	for k := 0; k < K; k++ {
		v := a.priorSum[k] / math.Max(totalPrior, 1e-300)
		p.PriorLog[k] = flooredLog(v)
	}

	for i := 0; i < K; i++ {
		den := math.Max(a.transDen[i], 1e-300)
		for j := 0; j < K; j++ {
			p.TransLog[i][j] = flooredLog(a.transNum[i][j] / den)
		}
	}

	for d := 0; d < a.spec.D; d++ {
		for lvl := 0; lvl < 2; lvl++ {
			wsum := a.weightSum[lvl][d]
			var mean, variance float64
			if wsum > 1e-9 {
				mean = a.weightedX[lvl][d] / wsum
				meanSq := a.weightedXX[lvl][d] / wsum
				variance = meanSq - mean*mean
			} else {
				// No mass assigned this round; keep the previous estimate.
				if lvl == int(Low) {
					mean, variance = prev.Low[d].Mean, prev.Low[d].Mean+1e-6
				} else {
					mean, variance = prev.High[d].Mean, prev.High[d].Mean+1e-6
				}
			}
			if mean <= 0 {
				mean = 1e-6
			}
			r := clampFailuresForMinVariance(mean, methodOfMomentsFailures(mean, variance), c.MinVarianceOverMean)
			if lvl == int(Low) {
				p.Low[d] = NBParam{Mean: mean, Failures: r}
			} else {
				p.High[d] = NBParam{Mean: mean, Failures: r}
			}
		}
		if p.High[d].Mean < p.Low[d].Mean {
			p.High[d].Mean = p.Low[d].Mean
		}
	}
	return p
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// flooredLog keeps reestimated probabilities strictly positive so the
// stored log matrices stay finite and JSON-serializable.
func flooredLog(x float64) float64 {
	if x < 1e-300 {
		x = 1e-300
	}
	return math.Log(x)
}
