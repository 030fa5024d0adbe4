// Package coverage turns treatment/control sources into per-bin
// non-negative integer counts, optionally control-regressed. The
// source-file decoding itself (BAM, BED, BigWig) is an external
// collaborator; this package only defines what the provider computes once
// it has per-range counts.
package coverage

import (
	"fmt"

	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

// Track is a per-chromosome integer vector of length ceil(length/B), the
// concrete realization of the CoverageTrack entity. It owns its own copy of
// the bin counts; it borrows (does not copy) the Layout.
type Track struct {
	layout *genome.Layout
	bins   map[string][]int
}

// NewTrack allocates a zeroed Track over layout.
func NewTrack(layout *genome.Layout) *Track {
	t := &Track{layout: layout, bins: make(map[string][]int, len(layout.Names()))}
	for _, name := range layout.Names() {
		n, _ := layout.NumBins(name)
		t.bins[name] = make([]int, n)
	}
	return t
}

// Layout returns the Layout this track is defined over.
func (t *Track) Layout() *genome.Layout { return t.layout }

// Bin returns the ordered per-bin vector for chromosome name. The returned
// slice is owned by the Track; callers must not retain and mutate it
// outside of the methods below.
func (t *Track) Bin(name string) ([]int, error) {
	v, ok := t.bins[name]
	if !ok {
		return nil, fmt.Errorf("coverage: unknown chromosome %q", name)
	}
	return v, nil
}

// Set assigns the full bin vector for chromosome name, replacing whatever
// was there. Len(values) must equal the chromosome's bin count.
func (t *Track) Set(name string, values []int) error {
	n, ok := t.layout.NumBins(name)
	if !ok {
		return fmt.Errorf("coverage: unknown chromosome %q", name)
	}
	if len(values) != n {
		return fmt.Errorf("coverage: chromosome %q expects %d bins, got %d", name, n, len(values))
	}
	for _, v := range values {
		if v < 0 {
			return fmt.Errorf("coverage: negative bin count %d for chromosome %q", v, name)
		}
	}
	t.bins[name] = append([]int(nil), values...)
	return nil
}

// Score sums the bin counts for chromosome name covering the half-open
// base-pair range [start, end).
func (t *Track) Score(name string, start, end int) (int, error) {
	values, err := t.Bin(name)
	if err != nil {
		return 0, err
	}
	b := t.layout.BinSize()
	firstBin := start / b
	lastBin := (end - 1) / b
	if firstBin < 0 {
		firstBin = 0
	}
	if lastBin >= len(values) {
		lastBin = len(values) - 1
	}
	sum := 0
	for k := firstBin; k <= lastBin; k++ {
		binStart, binEnd, ok := t.layout.BinRange(name, k)
		if !ok {
			continue
		}
		overlap := overlapLength(binStart, binEnd, start, end)
		if overlap <= 0 {
			continue
		}
		// Counts are stored per whole bin; a partial-bin range still
		// attributes the whole bin's count, matching the "sum of signal
		// counts over [start,end)" contract when ranges are bin-aligned
		// (candidates and blocks always are).
		sum += values[k]
	}
	return sum, nil
}

// IsZero reports whether every bin of chromosome name is zero, the
// condition that removes a chromosome from the effective genome query.
func (t *Track) IsZero(name string) bool {
	values, err := t.Bin(name)
	if err != nil {
		return true
	}
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

func overlapLength(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
