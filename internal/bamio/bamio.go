// Package bamio is the thin adapter between gonetics' BAM/genome importers
// and the engine's genome.Layout / coverage.Read types, isolating the one
// place the pipeline talks to an on-disk alignment format.
package bamio

import (
	"github.com/JetBrains-Research/omnipeak/internal/coverage"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	gn "github.com/pbenner/gonetics"
	"github.com/pkg/errors"
)

// LoadGenome builds a genome.Layout from a chromsizes file if chromSizesPath
// is non-empty, falling back to the BAM header otherwise, and drops
// unplaced contigs.
func LoadGenome(bamPath, chromSizesPath string, binSize int) (*genome.Layout, error) {
	var g gn.Genome
	if chromSizesPath != "" {
		if err := g.Import(chromSizesPath); err != nil {
			return nil, errors.Wrapf(err, "bamio: import chromsizes %q", chromSizesPath)
		}
	} else {
		var err error
		g, err = gn.BamImportGenome(bamPath)
		if err != nil {
			return nil, errors.Wrapf(err, "bamio: genome from bam header %q", bamPath)
		}
	}

	var names []string
	var lengths []int
	for i, name := range g.Seqnames {
		if genome.IsUnplaced(name) {
			continue
		}
		names = append(names, name)
		lengths = append(lengths, g.Lengths[i])
	}
	return genome.NewLayout(names, lengths, binSize)
}

// LoadReads decodes every paired-end alignment in path into coverage.Read
// values restricted to the chromosomes layout knows about.
func LoadReads(path string, layout *genome.Layout) ([]coverage.Read, error) {
	var r gn.GRanges
	if err := r.ImportBamPairedEnd(path, gn.BamReaderOptions{ReadName: false, ReadCigar: false, ReadSequence: false}); err != nil {
		return nil, errors.Wrapf(err, "bamio: import bam %q", path)
	}

	reads := make([]coverage.Read, 0, r.Length())
	for i := 0; i < r.Length(); i++ {
		chrom := r.Seqnames[i]
		if !layout.Has(chrom) {
			continue
		}
		strand := r.Strand[i]
		pos := r.Ranges[i].From
		if strand == '-' {
			pos = r.Ranges[i].To - 1
		}
		reads = append(reads, coverage.Read{Chrom: chrom, Position: pos, Strand: strand})
	}
	return reads, nil
}
