package blacklist

import (
	"strings"
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

func TestParseMergesOverlaps(t *testing.T) {
	bl, err := Parse(strings.NewReader("chr1\t100\t200\nchr1\t150\t300\nchr1\t1000\t1100\n"))
	if err != nil {
		t.Fatal(err)
	}
	if ivs := bl.ranges["chr1"]; len(ivs) != 2 {
		t.Fatalf("expected 2 merged ranges, got %d: %+v", len(ivs), ivs)
	}
	if !bl.Overlaps("chr1", 250, 260) {
		t.Fatalf("expected overlap within merged range")
	}
	if bl.Overlaps("chr1", 500, 600) {
		t.Fatalf("expected no overlap in the gap")
	}
	if !bl.Overlaps("chr1", 1050, 1200) {
		t.Fatalf("expected overlap with the second range")
	}
}

func TestEmptyBlacklistNeverOverlaps(t *testing.T) {
	bl := Empty()
	if bl.Overlaps("chr1", 0, 1000) {
		t.Fatalf("empty blacklist should never overlap")
	}
}

func TestZeroBinsScrubsOverlapping(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{1000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	bl, err := Parse(strings.NewReader("chr1\t150\t250\n"))
	if err != nil {
		t.Fatal(err)
	}
	bins := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out := bl.ZeroBins("chr1", bins, layout)
	for k, v := range out {
		start, end, _ := layout.BinRange("chr1", k)
		overlaps := start < 250 && end > 150
		if overlaps && v != 0 {
			t.Fatalf("bin %d should be zeroed, got %v", k, v)
		}
		if !overlaps && v != bins[k] {
			t.Fatalf("bin %d should be unchanged, got %v want %v", k, v, bins[k])
		}
	}
}
