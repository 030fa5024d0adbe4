package candidate

import (
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
)

func TestBuildExcludesUnplacedContigs(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1", "chr1_random"}, []int{1000, 1000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	logNull := map[string][]float64{
		"chr1":        makeConst(10, -5),
		"chr1_random": makeConst(10, -5),
	}
	cands, _, err := Build(layout, logNull, nil, -1, nil, false, 0, config.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cands {
		if c.Chrom == "chr1_random" {
			t.Fatalf("unplaced contig chr1_random should have been filtered out")
		}
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate on chr1, got %d", len(cands))
	}
}

func TestGapEstimationFragmentedVsStable(t *testing.T) {
	c := config.Defaults()
	fragmented := repeatingRuns([]int{1, 1, 0, 0, 1, 1, 0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0}, 50)
	gap, _, _ := EstimateGap(fragmented, 100, nil, false, c)
	if gap == 0 {
		t.Fatalf("expected nonzero gap for fragmented track")
	}

	// Runs 50 false bins apart never fuse at any gap below Gmax (5000bp/100 =
	// 50 bins), so the candidate count stays flat and S = 0.
	stablePattern := make([]int, 60)
	for i := 0; i < 10; i++ {
		stablePattern[i] = 1
	}
	stable := repeatingRuns(stablePattern, 50)
	gapStable, _, _ := EstimateGap(stable, 100, nil, false, c)
	if gapStable != 0 {
		t.Fatalf("expected zero gap for a non-fragmented track, got %d", gapStable)
	}
}

// flatSignal serves a fixed per-bin vector for every chromosome.
type flatSignal struct{ bins []int }

func (f flatSignal) Bin(name string) ([]int, error) { return f.bins, nil }

func TestBuildSummitModeSplitsBimodalCandidate(t *testing.T) {
	layout, err := genome.NewLayout([]string{"chr1"}, []int{10000}, 100)
	if err != nil {
		t.Fatal(err)
	}
	// One long foreground run with two well-separated coverage peaks.
	n := 100
	logNull := make([]float64, n)
	bins := make([]int, n)
	for i := range logNull {
		logNull[i] = -8
		bins[i] = 1
	}
	for i := 20; i < 30; i++ {
		bins[i] = 40
	}
	for i := 70; i < 80; i++ {
		bins[i] = 40
	}

	cands, gap, err := Build(layout, map[string][]float64{"chr1": logNull}, flatSignal{bins}, -1, nil, true, -1, config.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if gap != 0 {
		t.Fatalf("summit mode must force gap=0, got %d", gap)
	}
	if len(cands) < 2 {
		t.Fatalf("expected the bimodal candidate to split into summits, got %d candidates", len(cands))
	}
	for _, c := range cands {
		if c.From < 0 || c.To > n || c.From >= c.To {
			t.Fatalf("summit candidate out of parent range: %+v", c)
		}
	}
}

func makeConst(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func repeatingRuns(pattern []int, repeats int) []bool {
	out := make([]bool, 0, len(pattern)*repeats)
	for r := 0; r < repeats; r++ {
		for _, p := range pattern {
			out = append(out, p == 1)
		}
	}
	return out
}
