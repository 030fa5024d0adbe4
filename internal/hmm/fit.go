package hmm

import (
	"errors"
	"fmt"
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/statx"
	"github.com/pbenner/threadpool"
	"github.com/sirupsen/logrus"
)

// ChromSeq is the per-chromosome observation matrix handed to the fitter:
// D rows (one per dimension), each of length equal to that chromosome's
// bin count.
type ChromSeq struct {
	Name string
	Dims [][]float64
}

// FitResult is the fitter's output: the fitted Params plus per-chromosome
// log null posteriors (and, optionally, full per-state posteriors).
type FitResult struct {
	Params         *Params
	LogNull        map[string][]float64
	StatePosterior map[string][][]float64 // only populated when requested
}

// Cancel is a cooperative cancellation flag checked at safe points:
// between EM iterations and between chromosomes within an iteration.
type Cancel <-chan struct{}

func cancelled(c Cancel) bool {
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

// Fit runs Baum-Welch EM to convergence (or maxIterations) over chroms,
// then derives per-bin log posteriors. An empty genome (every chromosome
// has all-zero observations) is fatal, matching "model can't be trained on
// empty coverage".
func Fit(spec Spec, chroms []ChromSeq, c config.Constants, keepStatePosterior bool, logger *logrus.Logger, cancel Cancel) (*FitResult, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if allEmpty(chroms) {
		return nil, fmt.Errorf("hmm: model can't be trained on empty coverage")
	}

	dims := flattenDims(spec.D, chroms)
	params := InitializeFromData(spec, dims, c)

	prevLL := math.Inf(-1)
	converged := false
	for iter := 0; iter < c.EMMaxIterations; iter++ {
		if cancelled(cancel) {
			return nil, fmt.Errorf("hmm: %w", errCancelled{stage: "EM iteration"})
		}
		acc, totalLL, err := accumulateChroms(spec, params, chroms, c.Threads, cancel)
		if err != nil {
			return nil, err
		}
		params = acc.reestimate(params, c)

		if iter > 0 {
			rel := math.Abs(totalLL-prevLL) / math.Max(1, math.Abs(prevLL))
			if rel <= c.EMConvergenceThreshold {
				converged = true
				prevLL = totalLL
				break
			}
		}
		prevLL = totalLL
	}
	if !converged {
		logger.Warnf("hmm: EM did not converge within %d iterations; using last iterate", c.EMMaxIterations)
	}

	checkSNRGuard(params, c, logger)
	params.Flip(logger)

	result := &FitResult{Params: params, LogNull: make(map[string][]float64, len(chroms))}
	if keepStatePosterior {
		result.StatePosterior = make(map[string][][]float64, len(chroms))
	}
	nullStates := spec.NullStates()

	type posteriorOut struct {
		logNull []float64
		gamma   [][]float64
	}
	outs := make([]posteriorOut, len(chroms))
	decodeOne := func(i int) {
		chrom := chroms[i]
		if len(chrom.Dims) == 0 || len(chrom.Dims[0]) == 0 {
			return
		}
		alpha, _ := forward(params, chrom.Dims)
		beta := backward(params, chrom.Dims)
		gamma := posterior(alpha, beta)
		T := len(gamma)
		logNull := make([]float64, T)
		for t := 0; t < T; t++ {
			vals := make([]float64, len(nullStates))
			for i, s := range nullStates {
				vals[i] = gamma[t][s]
			}
			ln := statx.LogSumExpSlice(vals)
			if ln > c.LogNullFloor {
				ln = c.LogNullFloor
			}
			logNull[t] = ln
		}
		outs[i] = posteriorOut{logNull: logNull, gamma: gamma}
	}
	if c.Threads > 1 && len(chroms) > 1 {
		pool := threadpool.New(c.Threads, 100*c.Threads)
		pool.RangeJob(0, len(chroms), func(i int, pool threadpool.ThreadPool, erf func() error) error {
			decodeOne(i)
			return nil
		})
	} else {
		for i := range chroms {
			decodeOne(i)
		}
	}
	for i, chrom := range chroms {
		result.LogNull[chrom.Name] = outs[i].logNull
		if keepStatePosterior {
			result.StatePosterior[chrom.Name] = outs[i].gamma
		}
	}
	return result, nil
}

// accumulateChroms runs the forward-backward E-step over every chromosome,
// in parallel across a threadpool of c.Threads workers when more than one
// is configured, and folds the per-chromosome results into a single
// accumulator. Sequential when Threads<=1, preserving fine-grained
// cancellation between chromosomes; the parallel path checks cancellation
// once per batch since the pool has no natural mid-batch join point.
func accumulateChroms(spec Spec, params *Params, chroms []ChromSeq, threads int, cancel Cancel) (*accumulator, float64, error) {
	if threads > 1 && len(chroms) > 1 {
		if cancelled(cancel) {
			return nil, 0, fmt.Errorf("hmm: %w", errCancelled{stage: "EM iteration"})
		}
		partial := make([]*accumulator, len(chroms))
		lls := make([]float64, len(chroms))
		pool := threadpool.New(threads, 100*threads)
		pool.RangeJob(0, len(chroms), func(i int, pool threadpool.ThreadPool, erf func() error) error {
			chrom := chroms[i]
			a := newAccumulator(spec)
			if len(chrom.Dims) != 0 && len(chrom.Dims[0]) != 0 {
				alpha, ll := forward(params, chrom.Dims)
				beta := backward(params, chrom.Dims)
				a.accumulate(params, chrom.Dims, alpha, beta)
				lls[i] = ll
			}
			partial[i] = a
			return nil
		})
		acc := newAccumulator(spec)
		totalLL := 0.0
		for i := range chroms {
			acc.merge(partial[i])
			totalLL += lls[i]
		}
		return acc, totalLL, nil
	}

	acc := newAccumulator(spec)
	totalLL := 0.0
	for _, chrom := range chroms {
		if cancelled(cancel) {
			return nil, 0, fmt.Errorf("hmm: %w", errCancelled{stage: "EM chromosome pass"})
		}
		if len(chrom.Dims) == 0 || len(chrom.Dims[0]) == 0 {
			continue
		}
		alpha, ll := forward(params, chrom.Dims)
		beta := backward(params, chrom.Dims)
		acc.accumulate(params, chrom.Dims, alpha, beta)
		totalLL += ll
	}
	return acc, totalLL, nil
}

type errCancelled struct{ stage string }

func (e errCancelled) Error() string { return "cancelled during " + e.stage }

// IsCancelled reports whether err wraps the cooperative-cancellation
// sentinel Fit returns, letting callers outside this package (the engine)
// translate it into errx.CancelledError without depending on the
// unexported errCancelled type.
func IsCancelled(err error) bool {
	var c errCancelled
	return errors.As(err, &c)
}

func allEmpty(chroms []ChromSeq) bool {
	for _, chrom := range chroms {
		for _, dim := range chrom.Dims {
			for _, v := range dim {
				if v != 0 {
					return false
				}
			}
		}
	}
	return true
}

func flattenDims(d int, chroms []ChromSeq) [][]float64 {
	out := make([][]float64, d)
	for _, chrom := range chroms {
		for i := 0; i < d && i < len(chrom.Dims); i++ {
			out[i] = append(out[i], chrom.Dims[i]...)
		}
	}
	return out
}

// observationAt returns the D-length observation vector at position t.
func observationAt(dims [][]float64, t int) []float64 {
	obs := make([]float64, len(dims))
	for d := range dims {
		obs[d] = dims[d][t]
	}
	return obs
}

// forward runs the log-space forward pass. It returns alpha[t][k] and the
// total sequence log-likelihood log P(obs | params).
func forward(p *Params, dims [][]float64) ([][]float64, float64) {
	T := len(dims[0])
	K := p.Spec.K
	alpha := make([][]float64, T)
	scratch := make([]float64, K)
	for t := 0; t < T; t++ {
		alpha[t] = make([]float64, K)
		obs := observationAt(dims, t)
		for k := 0; k < K; k++ {
			e := p.EmissionLogProb(k, obs)
			if t == 0 {
				alpha[t][k] = p.PriorLog[k] + e
				continue
			}
			for j := 0; j < K; j++ {
				scratch[j] = alpha[t-1][j] + p.TransLog[j][k]
			}
			alpha[t][k] = e + statx.LogSumExpSlice(scratch)
		}
	}
	ll := statx.LogSumExpSlice(alpha[T-1])
	return alpha, ll
}

// backward runs the log-space backward pass, returning beta[t][k].
func backward(p *Params, dims [][]float64) [][]float64 {
	T := len(dims[0])
	K := p.Spec.K
	beta := make([][]float64, T)
	beta[T-1] = make([]float64, K) // log(1) = 0
	scratch := make([]float64, K)
	for t := T - 2; t >= 0; t-- {
		beta[t] = make([]float64, K)
		obsNext := observationAt(dims, t+1)
		emitNext := make([]float64, K)
		for k := 0; k < K; k++ {
			emitNext[k] = p.EmissionLogProb(k, obsNext)
		}
		for k := 0; k < K; k++ {
			for j := 0; j < K; j++ {
				scratch[j] = p.TransLog[k][j] + emitNext[j] + beta[t+1][j]
			}
			beta[t][k] = statx.LogSumExpSlice(scratch)
		}
	}
	return beta
}

// posterior combines alpha and beta into normalized per-bin, per-state log
// posteriors (gamma).
func posterior(alpha, beta [][]float64) [][]float64 {
	T := len(alpha)
	K := len(alpha[0])
	logZ := statx.LogSumExpSlice(alpha[T-1])
	gamma := make([][]float64, T)
	for t := 0; t < T; t++ {
		gamma[t] = make([]float64, K)
		for k := 0; k < K; k++ {
			gamma[t][k] = alpha[t][k] + beta[t][k] - logZ
		}
	}
	return gamma
}

func checkSNRGuard(p *Params, c config.Constants, logger *logrus.Logger) {
	for d := range p.Low {
		if p.Low[d].Mean <= 0 {
			continue
		}
		ratio := p.High[d].Mean / p.Low[d].Mean
		if ratio < c.SNRGuardRatio {
			logger.Warnf("hmm: dimension %d has low signal-to-noise ratio (%.4f < %.4f); clamping", d, ratio, c.SNRGuardRatio)
			p.High[d].Mean = p.Low[d].Mean * c.SNRGuardRatio
			p.OutOfSNRRange = true
		}
	}
}
