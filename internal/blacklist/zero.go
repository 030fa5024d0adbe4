package blacklist

import "github.com/JetBrains-Research/omnipeak/internal/genome"

// ZeroBins returns a copy of bins with every bin overlapping the
// blacklist on chrom set to zero, used by the optional BigWig CPM
// exporter to scrub excluded regions from its output track.
func (bl *Blacklist) ZeroBins(chrom string, bins []float64, layout *genome.Layout) []float64 {
	if bl == nil {
		return bins
	}
	out := append([]float64(nil), bins...)
	for k := range out {
		start, end, ok := layout.BinRange(chrom, k)
		if !ok {
			continue
		}
		if bl.Overlaps(chrom, start, end) {
			out[k] = 0
		}
	}
	return out
}
