// Package hmm implements the zero-inflated multidimensional negative
// binomial hidden Markov model. A single Params/Spec pair serves both the
// three-state "analyze" alphabet and the five-state "compare" alphabet;
// the Spec tagged variant replaces any subclass hierarchy.
package hmm

import "fmt"

// Level names which row of NB parameters (Low or High) an emission in a
// given state/dimension combination draws from.
type Level int

const (
	Low Level = iota
	High
)

// Kind discriminates the two state alphabets sharing this package's
// machinery.
type Kind int

const (
	KindAnalyze Kind = iota
	KindCompare
)

// Spec describes a state alphabet: its size, which states form the null
// set, and — for the compare alphabet — which dimensions belong to each of
// the two replicate groups, since states I and D borrow one group's
// dimensions from Low and the other's from High.
type Spec struct {
	Kind    Kind
	K       int
	D       int
	NGroup1 int // only meaningful for KindCompare; D = NGroup1+NGroup2
	NGroup2 int
}

// State indices, valid across both alphabets (compare only uses 0..4).
const (
	StateZ = 0
	StateL = 1
	StateH = 2
	StateI = 3
	StateD = 4
)

// AnalyzeSpec builds the three-state {Z,L,H} alphabet over D dimensions.
func AnalyzeSpec(d int) Spec {
	return Spec{Kind: KindAnalyze, K: 3, D: d}
}

// CompareSpec builds the five-state {Z,L,H,I,D} alphabet over
// nGroup1+nGroup2 dimensions.
func CompareSpec(nGroup1, nGroup2 int) Spec {
	return Spec{Kind: KindCompare, K: 5, D: nGroup1 + nGroup2, NGroup1: nGroup1, NGroup2: nGroup2}
}

// NullStates returns the indices of the null (background) state set: {Z,L}
// for analyze, {Z,L,H} ("same-in-both-groups") for compare.
func (s Spec) NullStates() []int {
	switch s.Kind {
	case KindAnalyze:
		return []int{StateZ, StateL}
	case KindCompare:
		return []int{StateZ, StateL, StateH}
	default:
		return nil
	}
}

// LevelForState returns which NB parameter row (Low/High) state uses for
// dimension dim. It panics for StateZ, which is degenerate and has no NB
// emission.
func (s Spec) LevelForState(state, dim int) Level {
	switch state {
	case StateZ:
		panic("hmm: LevelForState called on the degenerate zero state")
	case StateL:
		return Low
	case StateH:
		return High
	case StateI:
		if dim < s.NGroup1 {
			return Low
		}
		return High
	case StateD:
		if dim < s.NGroup1 {
			return High
		}
		return Low
	default:
		panic(fmt.Sprintf("hmm: unknown state %d", state))
	}
}

// NBParam is a single negative-binomial (mean, failures) pair.
type NBParam struct {
	Mean     float64
	Failures float64
}

// Params is the fitted HMMParameters entity: K-vector of prior logs, K×K
// log transition matrix, and D-length Low/High NB rows shared across states
// per LevelForState. Z is a fixed degenerate state and carries no NB row.
type Params struct {
	Spec     Spec
	PriorLog []float64   // len K
	TransLog [][]float64 // K x K
	Low      []NBParam   // len D
	High     []NBParam   // len D

	OutOfSNRRange bool // set when EM clamped means to preserve the SNR guard
	LowQuality    bool // set when a post-EM flip was ambiguous and skipped
}

// NewParams allocates a Params with the given spec and zeroed slices ready
// for initialization.
func NewParams(spec Spec) *Params {
	trans := make([][]float64, spec.K)
	for i := range trans {
		trans[i] = make([]float64, spec.K)
	}
	return &Params{
		Spec:     spec,
		PriorLog: make([]float64, spec.K),
		TransLog: trans,
		Low:      make([]NBParam, spec.D),
		High:     make([]NBParam, spec.D),
	}
}

// Clone deep-copies p.
func (p *Params) Clone() *Params {
	c := NewParams(p.Spec)
	copy(c.PriorLog, p.PriorLog)
	for i := range p.TransLog {
		copy(c.TransLog[i], p.TransLog[i])
	}
	copy(c.Low, p.Low)
	copy(c.High, p.High)
	c.OutOfSNRRange = p.OutOfSNRRange
	c.LowQuality = p.LowQuality
	return c
}
