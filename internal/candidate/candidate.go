// Package candidate turns per-bin "log_null <= threshold" booleans into
// candidate intervals, chooses a fragmentation-compensation merge gap,
// and optionally replaces each candidate by its kernel-density summits.
package candidate

import (
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	"github.com/JetBrains-Research/omnipeak/internal/runs"
)

// Candidate is a maximal (possibly gap-merged) run of foreground bins on
// one chromosome. SubBlocks, when present, are disjoint ordered summit
// ranges inside [From,To) produced by the summit-refining pass; an empty
// SubBlocks means "use the whole candidate".
type Candidate struct {
	Chrom     string
	From, To  int // bin range [From, To)
	SubBlocks []runs.Interval

	layout *genome.Layout
}

// BaseRange returns the base-pair half-open range this candidate covers.
func (c Candidate) BaseRange() (start, end int) {
	b := c.layout.BinSize()
	start = c.From * b
	_, end, _ = c.layout.BinRange(c.Chrom, c.To-1)
	return start, end
}

// Len returns the candidate's width in bins.
func (c Candidate) Len() int { return c.To - c.From }

// Layout returns the genome layout this candidate was built over, letting
// downstream packages (the scorer) translate arbitrary sub-ranges of the
// candidate back to base pairs without re-deriving the layout themselves.
func (c Candidate) Layout() *genome.Layout { return c.layout }

func fromInterval(chrom string, iv runs.Interval, layout *genome.Layout) Candidate {
	return Candidate{Chrom: chrom, From: iv.From, To: iv.To, layout: layout}
}

// New builds a Candidate directly from a bin range, letting downstream
// packages (the scorer's tests, chiefly) construct one without going
// through Build.
func New(chrom string, from, to int, layout *genome.Layout) Candidate {
	return Candidate{Chrom: chrom, From: from, To: to, layout: layout}
}
