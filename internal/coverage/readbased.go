package coverage

import (
	"fmt"

	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

// Read is a single aligned fragment's 5' position on a chromosome, the
// minimal projection the read-based provider needs out of whatever decoder
// (BAM/SAM/CRAM/BED) produced it.
type Read struct {
	Chrom    string
	Position int
	Strand   byte // '+' or '-'
}

// ReadBased is the read-based provider flavor: it counts reads whose
// (optionally fragment-shifted) 5' position falls inside each bin,
// deduplicating to one read per genomic position per strand when unique
// is set.
type ReadBased struct {
	layout     *genome.Layout
	id         string
	fragment   *int
	unique     bool
	regress    bool
	treatment  *Track
	control    *Track
	regression Regression
	hasControl bool
}

// NewReadBased builds a ReadBased provider from raw treatment (and
// optional control) reads, binning them over layout.
func NewReadBased(id string, layout *genome.Layout, treatmentReads []Read, controlReads []Read, fragment *int, unique, regress bool) (*ReadBased, error) {
	treatment, err := binReads(layout, treatmentReads, fragment, unique)
	if err != nil {
		return nil, fmt.Errorf("coverage: binning treatment reads: %w", err)
	}
	rb := &ReadBased{
		layout:    layout,
		id:        id,
		fragment:  fragment,
		unique:    unique,
		regress:   regress,
		treatment: treatment,
	}
	if controlReads != nil {
		control, err := binReads(layout, controlReads, fragment, unique)
		if err != nil {
			return nil, fmt.Errorf("coverage: binning control reads: %w", err)
		}
		rb.control = control
		rb.hasControl = true
		if regress {
			rb.regression = FitRegression(flattenTrack(treatment, layout), flattenTrack(control, layout), true)
		} else {
			rb.regression = Regression{Scale: genomeScale(treatment, control, layout), Beta: 0}
		}
	}
	return rb, nil
}

func (rb *ReadBased) ID() string             { return rb.id }
func (rb *ReadBased) Layout() *genome.Layout { return rb.layout }
func (rb *ReadBased) ControlAvailable() bool { return rb.hasControl }

func (rb *ReadBased) Bin(name string) ([]int, error) { return rb.treatment.Bin(name) }

func (rb *ReadBased) Score(name string, start, end int) (int, error) {
	return rb.treatment.Score(name, start, end)
}

func (rb *ReadBased) ControlScore(name string, start, end int) (int, error) {
	if !rb.hasControl {
		return 0, fmt.Errorf("coverage: no control available")
	}
	return rb.control.Score(name, start, end)
}

func (rb *ReadBased) ControlNormalizedScore(name string, start, end int) (int, error) {
	t, err := rb.treatment.Score(name, start, end)
	if err != nil {
		return 0, err
	}
	if !rb.hasControl {
		return t, nil
	}
	c, err := rb.control.Score(name, start, end)
	if err != nil {
		return 0, err
	}
	return rb.regression.NormalizedScore(t, c), nil
}

// ControlNormalizedBin returns the per-bin control-regressed counts for
// chromosome name; without a control it is identical to Bin.
func (rb *ReadBased) ControlNormalizedBin(name string) ([]int, error) {
	return normalizedBins(rb.treatment, rb.control, rb.regression, name)
}

// binReads aggregates reads into per-bin counts over layout, applying the
// optional fragment shift and unique-per-position-per-strand dedup.
func binReads(layout *genome.Layout, reads []Read, fragment *int, unique bool) (*Track, error) {
	track := NewTrack(layout)
	if len(reads) == 0 {
		return track, nil
	}

	byChrom := make(map[string][]Read)
	for _, r := range reads {
		if !layout.Has(r.Chrom) {
			continue
		}
		byChrom[r.Chrom] = append(byChrom[r.Chrom], r)
	}

	for chrom, chromReads := range byChrom {
		n, _ := layout.NumBins(chrom)
		counts := make([]int, n)
		b := layout.BinSize()

		if unique {
			seen := make(map[[2]int]bool, len(chromReads))
			deduped := chromReads[:0:0]
			for _, r := range chromReads {
				key := [2]int{shiftedPosition(r, fragment), int(r.Strand)}
				if seen[key] {
					continue
				}
				seen[key] = true
				deduped = append(deduped, r)
			}
			chromReads = deduped
		}

		for _, r := range chromReads {
			pos := shiftedPosition(r, fragment)
			if pos < 0 {
				continue
			}
			k := pos / b
			if k >= n {
				continue
			}
			counts[k]++
		}
		if err := track.Set(chrom, counts); err != nil {
			return nil, err
		}
	}
	return track, nil
}

func shiftedPosition(r Read, fragment *int) int {
	if fragment == nil {
		return r.Position
	}
	shift := *fragment / 2
	if r.Strand == '-' {
		return r.Position - shift
	}
	return r.Position + shift
}

func flattenTrack(t *Track, layout *genome.Layout) []float64 {
	var out []float64
	for _, name := range layout.Names() {
		values, _ := t.Bin(name)
		for _, v := range values {
			out = append(out, float64(v))
		}
	}
	return out
}

func genomeScale(treatment, control *Track, layout *genome.Layout) float64 {
	var sumT, sumC float64
	for _, name := range layout.Names() {
		tv, _ := treatment.Bin(name)
		cv, _ := control.Bin(name)
		for _, v := range tv {
			sumT += float64(v)
		}
		for _, v := range cv {
			sumC += float64(v)
		}
	}
	if sumC == 0 {
		return 0
	}
	return sumT / sumC
}

// normalizedBins applies the fitted regression bin by bin: max(0,
// T - beta*s*C), rounded.
func normalizedBins(treatment, control *Track, r Regression, name string) ([]int, error) {
	t, err := treatment.Bin(name)
	if err != nil {
		return nil, err
	}
	if control == nil {
		return t, nil
	}
	c, err := control.Bin(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(t))
	for i := range t {
		out[i] = r.NormalizedScore(t[i], c[i])
	}
	return out, nil
}
