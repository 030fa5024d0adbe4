package engine

import (
	"github.com/JetBrains-Research/omnipeak/internal/bigwig"
	"github.com/JetBrains-Research/omnipeak/internal/blacklist"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	"github.com/pkg/errors"
)

// writeBigWig exports the scoring provider's raw counts as a counts-per-
// million-normalized track, per the supplemented BigWig output.
func writeBigWig(path string, layout *genome.Layout, scoringProvider Signal, bl *blacklist.Blacklist) error {
	raw := make(map[string][]int, len(layout.Names()))
	total := 0.0
	for _, name := range layout.Names() {
		counts, err := scoringProvider.Bin(name)
		if err != nil {
			continue
		}
		raw[name] = counts
		for _, v := range counts {
			total += float64(v)
		}
	}
	if total == 0 {
		total = 1
	}
	scale := 1e6 / total

	values := make(map[string][]float64, len(raw))
	for name, counts := range raw {
		vals := make([]float64, len(counts))
		for i, v := range counts {
			vals[i] = float64(v) * scale
		}
		values[name] = vals
	}

	if err := bigwig.WriteCPM(path, layout, values, bl); err != nil {
		return errors.Wrap(err, "engine: writing bigwig track")
	}
	return nil
}
