// Package bigwig writes the optional counts-per-million-normalized
// coverage track, with blacklist regions zeroed. It is the one place
// besides bamio that talks to gonetics' on-disk formats.
package bigwig

import (
	"github.com/JetBrains-Research/omnipeak/internal/blacklist"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	gn "github.com/pbenner/gonetics"
	"github.com/pkg/errors"
)

// WriteCPM writes a BigWig track of per-bin values (already
// counts-per-million normalized by the caller) with any bin overlapping bl
// zeroed first.
func WriteCPM(path string, layout *genome.Layout, values map[string][]float64, bl *blacklist.Blacklist) error {
	names := layout.Names()
	lengths := make([]int, len(names))
	for i, name := range names {
		lengths[i], _ = layout.Length(name)
	}
	g := gn.NewGenome(names, lengths)

	// SimpleTrack rounds the last partial bin down rather than up, so the
	// exported sequences are truncated to the track's own bin count.
	track := gn.AllocSimpleTrack("omnipeak", g, layout.BinSize())
	for _, name := range names {
		scrubbed := bl.ZeroBins(name, values[name], layout)
		dst := track.Data[name]
		for k := range dst {
			if k < len(scrubbed) {
				dst[k] = scrubbed[k]
			}
		}
	}

	params := gn.DefaultBigWigParameters()
	if err := (gn.GenericTrack{Track: track}).ExportBigWig(path, g, params); err != nil {
		return errors.Wrapf(err, "bigwig: export %q", path)
	}
	return nil
}
