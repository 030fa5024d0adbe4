package statx

import (
	"math/rand"
	"testing"
)

func TestDipTestBimodalVsUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	bimodal := make([]float64, 0, 400)
	for i := 0; i < 200; i++ {
		bimodal = append(bimodal, rng.NormFloat64()-2)
	}
	for i := 0; i < 200; i++ {
		bimodal = append(bimodal, rng.NormFloat64()+2)
	}
	_, pBimodal := DipTest(bimodal, 1000, rng)

	uniform := make([]float64, 400)
	for i := range uniform {
		uniform[i] = rng.Float64()
	}
	_, pUniform := DipTest(uniform, 1000, rng)

	if pBimodal >= pUniform {
		t.Fatalf("expected bimodal p-value (%v) to be well below uniform p-value (%v)", pBimodal, pUniform)
	}
}

func TestDipTestDegenerateSample(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dip, p := DipTest([]float64{1, 1, 1}, 10, rng)
	if dip != 0 {
		t.Fatalf("dip = %v, want 0 for tiny sample", dip)
	}
	_ = p
}
