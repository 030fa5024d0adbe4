package score

import (
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/candidate"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

// fakeProvider is a minimal in-memory Provider used only to exercise the
// scorer without pulling in the coverage package's file decoding.
type fakeProvider struct {
	layout  *genome.Layout
	treat   map[string][]int
	control map[string][]int
}

func (f *fakeProvider) Bin(name string) ([]int, error) { return f.treat[name], nil }

func (f *fakeProvider) Score(name string, start, end int) (int, error) {
	return sumRange(f.layout, f.treat[name], start, end), nil
}

func (f *fakeProvider) ControlAvailable() bool { return f.control != nil }

func (f *fakeProvider) ControlScore(name string, start, end int) (int, error) {
	return sumRange(f.layout, f.control[name], start, end), nil
}

func (f *fakeProvider) Layout() *genome.Layout { return f.layout }

func sumRange(layout *genome.Layout, values []int, start, end int) int {
	b := layout.BinSize()
	firstBin := start / b
	lastBin := (end - 1) / b
	sum := 0
	for k := firstBin; k <= lastBin && k < len(values); k++ {
		sum += values[k]
	}
	return sum
}

func TestScoreFiltersByFDR(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{2000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	// 20 bins: a strongly enriched region (bins 2-6) and flat background
	// elsewhere.
	treat := make([]int, 20)
	logNull := make([]float64, 20)
	for i := range treat {
		treat[i] = 1
		logNull[i] = -0.01
	}
	for i := 2; i < 7; i++ {
		treat[i] = 50
		logNull[i] = -20
	}
	provider := &fakeProvider{layout: layout, treat: map[string][]int{"chr1": treat}}

	cand := candidate.New("chr1", 2, 7, layout)
	peaks, err := Score([]candidate.Candidate{cand}, map[string][]float64{"chr1": logNull}, provider, nil, 0.05, false, config.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if len(peaks) != 1 {
		t.Fatalf("expected the enriched candidate to survive filtering, got %d peaks", len(peaks))
	}
	p := peaks[0]
	if p.Score < 0 || p.Score > 1000 {
		t.Fatalf("score out of range: %d", p.Score)
	}
	if p.Start >= p.End {
		t.Fatalf("invalid peak range [%d,%d)", p.Start, p.End)
	}
}

func TestScoreRespectsBlacklist(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{2000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	treat := make([]int, 20)
	logNull := make([]float64, 20)
	for i := 2; i < 7; i++ {
		treat[i] = 50
		logNull[i] = -20
	}
	provider := &fakeProvider{layout: layout, treat: map[string][]int{"chr1": treat}}
	cand := candidate.New("chr1", 2, 7, layout)

	bl := blacklistAll{}
	peaks, err := Score([]candidate.Candidate{cand}, map[string][]float64{"chr1": logNull}, provider, bl, 0.05, false, config.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if len(peaks) != 0 {
		t.Fatalf("expected blacklist to drop every candidate, got %d peaks", len(peaks))
	}
}

type blacklistAll struct{}

func (blacklistAll) Overlaps(chrom string, start, end int) bool { return true }
