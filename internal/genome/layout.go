// Package genome provides the immutable chromosome layout and bin index
// that every other package borrows from rather than copies: per-bin data
// lives in packed arrays indexed by this table, not in row-bound objects.
package genome

import (
	"fmt"
	"sort"
	"strings"
)

// Layout is an ordered mapping chromosome name -> length, plus the bin size
// that divides every chromosome into fixed-width windows. It is built once
// and never mutated; Filter returns a new Layout rather than mutating.
type Layout struct {
	names   []string
	lengths []int
	index   map[string]int
	binSize int
}

// NewLayout builds a Layout from parallel names/lengths slices, sorting
// chromosomes by name as required for numeric layouts. It rejects
// duplicate names, non-positive lengths, and a non-positive bin size.
func NewLayout(names []string, lengths []int, binSize int) (*Layout, error) {
	if binSize <= 0 {
		return nil, fmt.Errorf("genome: bin size must be > 0, got %d", binSize)
	}
	if len(names) != len(lengths) {
		return nil, fmt.Errorf("genome: names and lengths length mismatch (%d vs %d)", len(names), len(lengths))
	}
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return names[order[i]] < names[order[j]] })

	l := &Layout{
		names:   make([]string, len(names)),
		lengths: make([]int, len(lengths)),
		index:   make(map[string]int, len(names)),
		binSize: binSize,
	}
	for dst, src := range order {
		name, length := names[src], lengths[src]
		if length <= 0 {
			return nil, fmt.Errorf("genome: chromosome %q has non-positive length %d", name, length)
		}
		if _, dup := l.index[name]; dup {
			return nil, fmt.Errorf("genome: duplicate chromosome name %q", name)
		}
		l.names[dst] = name
		l.lengths[dst] = length
		l.index[name] = dst
	}
	return l, nil
}

// BinSize returns the configured bin width in base pairs.
func (l *Layout) BinSize() int { return l.binSize }

// Names returns the chromosome names in their canonical sorted order.
// Callers must not mutate the returned slice.
func (l *Layout) Names() []string { return l.names }

// Length returns the length of chromosome name, or false if absent.
func (l *Layout) Length(name string) (int, bool) {
	i, ok := l.index[name]
	if !ok {
		return 0, false
	}
	return l.lengths[i], true
}

// NumBins returns ceil(length/binSize) for chromosome name.
func (l *Layout) NumBins(name string) (int, bool) {
	length, ok := l.Length(name)
	if !ok {
		return 0, false
	}
	return ceilDiv(length, l.binSize), true
}

// BinRange returns the half-open base-pair range [start, end) covered by
// bin k of chromosome name; the last bin may be shorter than binSize.
func (l *Layout) BinRange(name string, k int) (start, end int, ok bool) {
	length, exists := l.Length(name)
	if !exists {
		return 0, 0, false
	}
	start = k * l.binSize
	end = start + l.binSize
	if end > length {
		end = length
	}
	return start, end, true
}

// Has reports whether name is present in the layout.
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Filter returns a new Layout containing only chromosomes for which keep
// returns true, preserving relative order. It backs the unplaced-contig
// filter of the candidate builder and the "zero coverage" removal of the
// boundary behaviors.
func (l *Layout) Filter(keep func(name string) bool) *Layout {
	var names []string
	var lengths []int
	for i, n := range l.names {
		if keep(n) {
			names = append(names, n)
			lengths = append(lengths, l.lengths[i])
		}
	}
	out, err := NewLayout(names, lengths, l.binSize)
	if err != nil {
		// Filtering a valid layout can only shrink it; this cannot fail.
		panic(err)
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// IsUnplaced reports whether a chromosome name matches the conventional
// unplaced-contig patterns: contains '_' or, case-insensitively, "random"
// or "un".
func IsUnplaced(name string) bool {
	if strings.Contains(name, "_") {
		return true
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "random") || strings.Contains(lower, "un")
}
