package hmm

import "github.com/sirupsen/logrus"

// Flip re-orders the Low/High roles (and, transitively, the L/H rows and
// columns of the transition matrix) so that for every dimension the Low
// state's mean is at or below the High state's mean after EM finishes.
// The decision is made once for the whole
// model rather than per dimension, since every state's emission is defined
// relative to the shared Low/High rows via Spec.LevelForState. If the mean
// signal and the success-probability signal disagree about whether a flip
// is needed, the model is left unchanged and flagged LowQuality rather
// than guessing.
func (p *Params) Flip(logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	meanFlip := averageMean(p.Low) > averageMean(p.High)
	successFlip := averageSuccessProb(p.Low) < averageSuccessProb(p.High)

	switch {
	case meanFlip && successFlip:
		p.Low, p.High = p.High, p.Low
		swapStates(p, StateL, StateH)
		logger.Infof("hmm: flipped Low/High state roles post-EM")
	case meanFlip != successFlip:
		p.LowQuality = true
		logger.Warnf("hmm: ambiguous post-EM state ordering (mean and success-probability signals disagree); leaving unchanged")
	default:
		// Already correctly ordered.
	}
}

func averageMean(rows []NBParam) float64 {
	if len(rows) == 0 {
		return 0
	}
	var s float64
	for _, r := range rows {
		s += r.Mean
	}
	return s / float64(len(rows))
}

func averageSuccessProb(rows []NBParam) float64 {
	if len(rows) == 0 {
		return 0
	}
	var s float64
	for _, r := range rows {
		if r.Failures+r.Mean <= 0 {
			continue
		}
		s += r.Failures / (r.Failures + r.Mean)
	}
	return s / float64(len(rows))
}

// swapStates exchanges the prior entries and the transition rows/columns of
// states a and b, keeping the model self-consistent after a Low/High swap.
func swapStates(p *Params, a, b int) {
	p.PriorLog[a], p.PriorLog[b] = p.PriorLog[b], p.PriorLog[a]
	K := p.Spec.K
	for k := 0; k < K; k++ {
		p.TransLog[a][k], p.TransLog[b][k] = p.TransLog[b][k], p.TransLog[a][k]
	}
	for k := 0; k < K; k++ {
		p.TransLog[k][a], p.TransLog[k][b] = p.TransLog[k][b], p.TransLog[k][a]
	}
}
