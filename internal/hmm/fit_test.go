package hmm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/config"
)

func syntheticChrom(name string, n int, rng *rand.Rand) ChromSeq {
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		if i >= n/3 && i < 2*n/3 {
			vals[i] = float64(poissonSample(rng, 20))
		} else {
			vals[i] = float64(poissonSample(rng, 1))
		}
	}
	return ChromSeq{Name: name, Dims: [][]float64{vals}}
}

func poissonSample(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

func TestFitRejectsEmptyCoverage(t *testing.T) {
	chroms := []ChromSeq{{Name: "chr1", Dims: [][]float64{make([]float64, 50)}}}
	_, err := Fit(AnalyzeSpec(1), chroms, config.Defaults(), false, nil, nil)
	if err == nil {
		t.Fatal("expected error for empty coverage")
	}
}

func TestFitProducesValidLogNull(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	chroms := []ChromSeq{syntheticChrom("chr1", 300, rng)}
	c := config.Defaults()
	c.EMMaxIterations = 3
	result, err := Fit(AnalyzeSpec(1), chroms, c, false, nil, nil)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	logNull, ok := result.LogNull["chr1"]
	if !ok {
		t.Fatal("missing chr1 in LogNull")
	}
	for i, v := range logNull {
		if v > 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("logNull[%d] = %v, want finite and <= 0", i, v)
		}
	}
	if result.Params.Low[0].Mean > result.Params.High[0].Mean {
		t.Fatalf("state ordering invariant violated: Low mean %v > High mean %v",
			result.Params.Low[0].Mean, result.Params.High[0].Mean)
	}
}

func TestFlipSwapsWhenBothSignalsAgree(t *testing.T) {
	p := NewParams(AnalyzeSpec(1))
	p.Low[0] = NBParam{Mean: 50, Failures: 5}
	p.High[0] = NBParam{Mean: 2, Failures: 5}
	p.PriorLog = []float64{0, 0, 0}
	p.TransLog = logMat([][]float64{{0.5, 0.3, 0.2}, {0.3, 0.5, 0.2}, {0.2, 0.3, 0.5}})
	p.Flip(nil)
	if p.Low[0].Mean > p.High[0].Mean {
		t.Fatalf("after flip Low.Mean=%v should be <= High.Mean=%v", p.Low[0].Mean, p.High[0].Mean)
	}
}
