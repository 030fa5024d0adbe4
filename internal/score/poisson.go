package score

import (
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"gonum.org/v1/gonum/stat/distuv"
)

// logFactorialCache memoizes log(i!) for i up to the configured cap as a
// prefix-sum array; values beyond the cap fall back to incrementally
// adding ln(i), never recomputing the whole sum from scratch.
type logFactorialCache struct {
	prefix []float64
}

func newLogFactorialCache(cap int) *logFactorialCache {
	prefix := make([]float64, cap+1)
	for i := 1; i <= cap; i++ {
		prefix[i] = prefix[i-1] + math.Log(float64(i))
	}
	return &logFactorialCache{prefix: prefix}
}

// at returns log(i!), extending past the cached prefix with plain ln(i)
// increments.
func (c *logFactorialCache) at(i int) float64 {
	if i < len(c.prefix) {
		return c.prefix[i]
	}
	v := c.prefix[len(c.prefix)-1]
	for j := len(c.prefix); j <= i; j++ {
		v += math.Log(float64(j))
	}
	return v
}

// logPoissonUpperTail computes log P(N >= k | lambda) via a logsumexp
// recurrence over the Poisson pmf terms i = k, k+1, ..., stopping once
// successive cumulative totals stop moving by more than eps. lambda <= 0
// is treated as a point mass at zero.
func logPoissonUpperTail(k int, lambda float64, cache *logFactorialCache, eps float64) float64 {
	if k <= 0 {
		return 0
	}
	if lambda <= 0 {
		return math.Inf(-1)
	}

	logLambda := math.Log(lambda)
	total := math.Inf(-1)
	logFact := cache.at(k - 1)
	const maxSteps = 2_000_000
	for i, steps := k, 0; steps < maxSteps; i, steps = i+1, steps+1 {
		logFact += math.Log(float64(i))
		lp := float64(i)*logLambda - lambda - logFact
		next := logSumExp2(total, lp)
		diff := next - total
		total = next
		if steps > 0 && diff < eps {
			break
		}
	}
	return total
}

func logSumExp2(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	max := a
	if b > max {
		max = b
	}
	return max + math.Log(math.Exp(a-max)+math.Exp(b-max))
}

// poissonTail is the scorer's shared handle on the cache plus the
// convergence epsilon, built once per run from the configured constants.
type poissonTail struct {
	cache *logFactorialCache
	eps   float64
}

func newPoissonTail(c config.Constants) *poissonTail {
	return &poissonTail{cache: newLogFactorialCache(c.PoissonFactorialCap), eps: c.PoissonConvergenceEps}
}

// upperTail computes log P(N >= k | lambda). It tries gonum's Poisson
// survival function first: when the tail mass is large enough to
// represent in float64, a direct log of the survival is exact and far
// cheaper than the series. Once that mass underflows to exactly zero,
// the deep-tail p-values this scorer actually cares about, it falls back
// to the cached log-space recurrence, which never underflows because it
// never exponentiates the full tail at once.
func (p *poissonTail) upperTail(k int, lambda float64) float64 {
	if k > 0 && lambda > 0 {
		if s := (distuv.Poisson{Lambda: lambda}).Survival(float64(k - 1)); s > 0 {
			return math.Log(s)
		}
	}
	return logPoissonUpperTail(k, lambda, p.cache, p.eps)
}
