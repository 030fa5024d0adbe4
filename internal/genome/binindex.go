package genome

import "fmt"

// BinIndex maps chromosome names to a contiguous [start,end) range within a
// single concatenated genome vector, and back. It is derived once from a
// Layout and is itself immutable.
type BinIndex struct {
	layout     *Layout
	chromStart map[string]int
	chromEnd   map[string]int
	order      []string
	total      int
}

// NewBinIndex derives a BinIndex from layout, laying chromosomes out in
// their canonical sorted order so that end-start equals
// ceil(length/binSize) for each chromosome and bins strictly partition the
// genome vector.
func NewBinIndex(layout *Layout) *BinIndex {
	bi := &BinIndex{
		layout:     layout,
		chromStart: make(map[string]int, len(layout.Names())),
		chromEnd:   make(map[string]int, len(layout.Names())),
		order:      append([]string(nil), layout.Names()...),
	}
	offset := 0
	for _, name := range bi.order {
		n, _ := layout.NumBins(name)
		bi.chromStart[name] = offset
		offset += n
		bi.chromEnd[name] = offset
	}
	bi.total = offset
	return bi
}

// Layout returns the Layout this index was derived from.
func (bi *BinIndex) Layout() *Layout { return bi.layout }

// Total returns the length of the concatenated genome vector.
func (bi *BinIndex) Total() int { return bi.total }

// Range returns the [start,end) range of chromosome name within the
// concatenated genome vector.
func (bi *BinIndex) Range(name string) (start, end int, ok bool) {
	s, ok1 := bi.chromStart[name]
	e, ok2 := bi.chromEnd[name]
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return s, e, true
}

// Global converts a (chromosome, local bin) pair to a global offset into
// the concatenated genome vector.
func (bi *BinIndex) Global(name string, localBin int) (int, error) {
	start, end, ok := bi.Range(name)
	if !ok {
		return 0, fmt.Errorf("genome: unknown chromosome %q", name)
	}
	g := start + localBin
	if g < start || g >= end {
		return 0, fmt.Errorf("genome: bin %d out of range for chromosome %q (%d bins)", localBin, name, end-start)
	}
	return g, nil
}

// Locate is the inverse of Global: it finds the chromosome and local bin
// containing global offset g.
func (bi *BinIndex) Locate(g int) (name string, localBin int, err error) {
	if g < 0 || g >= bi.total {
		return "", 0, fmt.Errorf("genome: global offset %d out of range [0,%d)", g, bi.total)
	}
	// Chromosome count is small (tens to low hundreds); linear scan over
	// the canonical order is simpler than a binary search and is not on
	// any hot path (callers operate on whole chromosomes).
	for _, n := range bi.order {
		s, e := bi.chromStart[n], bi.chromEnd[n]
		if g >= s && g < e {
			return n, g - s, nil
		}
	}
	return "", 0, fmt.Errorf("genome: global offset %d not covered by any chromosome", g)
}

// Order returns the canonical chromosome order used to lay out the
// concatenated vector.
func (bi *BinIndex) Order() []string { return bi.order }
