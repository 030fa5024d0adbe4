package coverage

import (
	"fmt"
	"math"
	"sort"

	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

// SummaryBased is the continuous-coverage provider flavor (BigWig-style
// sources): it takes per-range sums already computed by an external
// decoder and rescales them so the 99th-percentile bin falls inside
// [0.2*B, 2.0*B], making values comparable across samples of differing
// sequencing depth or normalization.
type SummaryBased struct {
	layout     *genome.Layout
	id         string
	regress    bool
	treatment  *Track
	control    *Track
	regression Regression
	hasControl bool
}

// NewSummaryBased builds a SummaryBased provider from raw per-bin sums
// (treatment and optional control), rescaling treatment (and control,
// independently) before storing them. Missing chromosomes in rawTreatment
// yield a zero vector of the correct length; negative values are rejected
// as a fatal inconsistency.
func NewSummaryBased(id string, layout *genome.Layout, rawTreatment, rawControl map[string][]float64, regress bool) (*SummaryBased, error) {
	treatment, err := scaleAndRound(layout, rawTreatment)
	if err != nil {
		return nil, fmt.Errorf("coverage: scaling treatment: %w", err)
	}
	sb := &SummaryBased{layout: layout, id: id, regress: regress, treatment: treatment}
	if rawControl != nil {
		control, err := scaleAndRound(layout, rawControl)
		if err != nil {
			return nil, fmt.Errorf("coverage: scaling control: %w", err)
		}
		sb.control = control
		sb.hasControl = true
		if regress {
			sb.regression = FitRegression(flattenTrack(treatment, layout), flattenTrack(control, layout), true)
		} else {
			sb.regression = Regression{Scale: genomeScale(treatment, control, layout), Beta: 0}
		}
	}
	return sb, nil
}

func (sb *SummaryBased) ID() string             { return sb.id }
func (sb *SummaryBased) Layout() *genome.Layout { return sb.layout }
func (sb *SummaryBased) ControlAvailable() bool { return sb.hasControl }

func (sb *SummaryBased) Bin(name string) ([]int, error) { return sb.treatment.Bin(name) }

func (sb *SummaryBased) Score(name string, start, end int) (int, error) {
	return sb.treatment.Score(name, start, end)
}

func (sb *SummaryBased) ControlScore(name string, start, end int) (int, error) {
	if !sb.hasControl {
		return 0, fmt.Errorf("coverage: no control available")
	}
	return sb.control.Score(name, start, end)
}

func (sb *SummaryBased) ControlNormalizedScore(name string, start, end int) (int, error) {
	t, err := sb.treatment.Score(name, start, end)
	if err != nil {
		return 0, err
	}
	if !sb.hasControl {
		return t, nil
	}
	c, err := sb.control.Score(name, start, end)
	if err != nil {
		return 0, err
	}
	return sb.regression.NormalizedScore(t, c), nil
}

// ControlNormalizedBin returns the per-bin control-regressed counts for
// chromosome name; without a control it is identical to Bin.
func (sb *SummaryBased) ControlNormalizedBin(name string) ([]int, error) {
	return normalizedBins(sb.treatment, sb.control, sb.regression, name)
}

// scaleAndRound builds a Track from raw per-bin sums, scaling so the 99th
// percentile bin value lands inside [0.2*B, 2.0*B].
func scaleAndRound(layout *genome.Layout, raw map[string][]float64) (*Track, error) {
	b := float64(layout.BinSize())
	var all []float64
	for _, name := range layout.Names() {
		n, _ := layout.NumBins(name)
		values := raw[name]
		if values == nil {
			continue // missing chromosome -> zero vector, nothing to collect
		}
		if len(values) != n {
			return nil, fmt.Errorf("chromosome %q: expected %d bins, got %d", name, n, len(values))
		}
		for _, v := range values {
			if v < 0 {
				return nil, fmt.Errorf("chromosome %q: negative summary value %v", name, v)
			}
			all = append(all, v)
		}
	}

	scale := 1.0
	if len(all) > 0 {
		p99 := percentile(all, 0.99)
		lo, hi := 0.2*b, 2.0*b
		switch {
		case p99 > hi:
			scale = hi / p99
		case p99 > 0 && p99 < lo:
			scale = lo / p99
		}
	}

	track := NewTrack(layout)
	for _, name := range layout.Names() {
		n, _ := layout.NumBins(name)
		values := raw[name]
		out := make([]int, n)
		if values != nil {
			for i, v := range values {
				out[i] = int(math.Round(v * scale))
			}
		}
		if err := track.Set(name, out); err != nil {
			return nil, err
		}
	}
	return track, nil
}

func percentile(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
