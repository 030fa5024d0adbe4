package score

import (
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/candidate"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

func newTestCandidate(t *testing.T, from, to int) candidate.Candidate {
	t.Helper()
	layout, err := genome.NewLayout([]string{"chr1"}, []int{100000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	return candidate.New("chr1", from, to, layout)
}

func TestDecomposeBlocksFallsBackWhenAllEqual(t *testing.T) {
	cand := newTestCandidate(t, 0, 10)
	ln := make([]float64, 10)
	for i := range ln {
		ln[i] = -3
	}
	blocks := decomposeBlocks(cand, ln, config.Defaults())
	if len(blocks) != 1 || blocks[0].from != 0 || blocks[0].to != 10 {
		t.Fatalf("expected single whole-candidate block, got %+v", blocks)
	}
}

func TestDecomposeBlocksSplitsOnHalf(t *testing.T) {
	cand := newTestCandidate(t, 0, 10)
	// Bottom half strongly foreground, top half weakly so: median sits at
	// the boundary, and the below/at-median half should form the block.
	ln := []float64{-10, -10, -10, -10, -10, -1, -1, -1, -1, -1}
	c := config.Defaults()
	c.BlockIntraGapBins = 0
	blocks := decomposeBlocks(cand, ln, c)
	if len(blocks) == 0 {
		t.Fatalf("expected at least one block")
	}
	if blocks[0].from != 0 {
		t.Fatalf("expected the first block to start at the strongest bins, got %+v", blocks)
	}
}

func TestSortBlocksByLogPAscending(t *testing.T) {
	blocks := []block{{0, 1}, {1, 2}, {2, 3}}
	logP := []float64{-1, -5, -3}
	sortBlocksByLogP(blocks, logP)
	for i := 1; i < len(logP); i++ {
		if logP[i-1] > logP[i] {
			t.Fatalf("blocks not sorted ascending: %v", logP)
		}
	}
}
