package coverage

import (
	"math"
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

func buildReads(chrom string, positions []int) []Read {
	reads := make([]Read, len(positions))
	for i, p := range positions {
		reads[i] = Read{Chrom: chrom, Position: p, Strand: '+'}
	}
	return reads
}

// TestControlRegressionScenario: treatment positions {1,2,3,4,5,10,11,15},
// control positions {0,2,4,6,10,12,14,20,21,22,25}, B=200, single
// chromosome. With regression on, scale should be close to 0.72 and beta
// stay inside [0,1]; with regression off, beta must be exactly 0.
func TestControlRegressionScenario(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{1000}, 200)
	if err != nil {
		t.Fatal(err)
	}
	treatmentPos := []int{1, 2, 3, 4, 5, 10, 11, 15}
	controlPos := []int{0, 2, 4, 6, 10, 12, 14, 20, 21, 22, 25}

	rbOn, err := NewReadBased("t", layout, buildReads("chr1", treatmentPos), buildReads("chr1", controlPos), nil, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if !rbOn.ControlAvailable() {
		t.Fatal("expected control available")
	}
	if got := rbOn.regression.Scale; math.Abs(got-0.72) > 0.05 {
		t.Fatalf("scale = %v, want ~0.72", got)
	}
	if got := rbOn.regression.Beta; got < 0 || got > 1 {
		t.Fatalf("beta = %v out of [0,1]", got)
	}

	rbOff, err := NewReadBased("t", layout, buildReads("chr1", treatmentPos), buildReads("chr1", controlPos), nil, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if rbOff.regression.Beta != 0 {
		t.Fatalf("beta = %v, want 0 with regression off", rbOff.regression.Beta)
	}
}

func TestReadBasedUniqueDedup(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{1000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	reads := []Read{
		{Chrom: "chr1", Position: 50, Strand: '+'},
		{Chrom: "chr1", Position: 50, Strand: '+'},
		{Chrom: "chr1", Position: 50, Strand: '-'},
	}
	rb, err := NewReadBased("t", layout, reads, nil, nil, true, true)
	if err != nil {
		t.Fatal(err)
	}
	score, err := rb.Score("chr1", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if score != 2 {
		t.Fatalf("score = %d, want 2 (one per strand after dedup)", score)
	}
}

func TestControlNormalizedBinWithoutRegression(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{1000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	treatment := buildReads("chr1", []int{10, 20, 30, 150})
	control := buildReads("chr1", []int{15, 25, 160, 170})

	rb, err := NewReadBased("t", layout, treatment, control, nil, false, false)
	if err != nil {
		t.Fatal(err)
	}
	// beta is 0 with regression off, so the normalized bins equal the raw
	// treatment bins.
	raw, err := rb.Bin("chr1")
	if err != nil {
		t.Fatal(err)
	}
	norm, err := rb.ControlNormalizedBin("chr1")
	if err != nil {
		t.Fatal(err)
	}
	for i := range raw {
		if norm[i] != raw[i] {
			t.Fatalf("bin %d: normalized %d != raw %d with regression off", i, norm[i], raw[i])
		}
	}

	for i := range norm {
		if norm[i] < 0 {
			t.Fatalf("bin %d: normalized score %d must be non-negative", i, norm[i])
		}
	}
}

func TestSummaryBasedMissingChromosomeIsZero(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1", "chr2"}, []int{1000, 1000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	raw := map[string][]float64{
		"chr1": make([]float64, 10),
	}
	sb, err := NewSummaryBased("s", layout, raw, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	values, err := sb.Bin("chr2")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range values {
		if v != 0 {
			t.Fatalf("expected zero vector for missing chromosome, got %v", values)
		}
	}
}

func TestSummaryBasedRejectsNegativeValues(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{1000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	raw := map[string][]float64{"chr1": {1, -1, 2, 3, 4, 5, 6, 7, 8, 9}}
	if _, err := NewSummaryBased("s", layout, raw, nil, false); err == nil {
		t.Fatal("expected error for negative summary value")
	}
}
