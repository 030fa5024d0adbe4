package sensitivity

import (
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/config"
)

func buildLogNull(pattern []float64, repeats int) [][]float64 {
	out := make([]float64, 0, len(pattern)*repeats)
	for i := 0; i < repeats; i++ {
		out = append(out, pattern...)
	}
	return [][]float64{out}
}

func TestBuildSweepMonotonicBounds(t *testing.T) {
	c := config.Defaults()
	c.SweepSize = 20
	logNull := buildLogNull([]float64{-5, -0.5, -0.0001, -3, -0.2}, 40)
	curve := BuildSweep(logNull, c)
	if len(curve.Thresholds) != 20 {
		t.Fatalf("expected 20 thresholds, got %d", len(curve.Thresholds))
	}
	for i, thr := range curve.Thresholds {
		if thr > 0 {
			t.Fatalf("threshold %v should be <= 0", thr)
		}
		if i > 0 && thr < curve.Thresholds[i-1] {
			t.Fatalf("thresholds not non-decreasing at %d: %v < %v", i, thr, curve.Thresholds[i-1])
		}
	}
}

func TestChooseFallsBackWithoutTriangle(t *testing.T) {
	c := config.Defaults()
	c.SweepSize = 5
	// Every threshold equals -1, so the curve is flat and every candidate
	// triangle has zero area -> no triangle can be located.
	logNull := [][]float64{{-1, -1}}
	res := Choose(logNull, c)
	if res.TriangleFound {
		t.Fatalf("expected no triangle for degenerate curve")
	}
	if res.Threshold != c.DefaultFDRFallbackLn {
		t.Fatalf("expected fallback threshold, got %v", res.Threshold)
	}
}

func TestChooseOnRealisticCurve(t *testing.T) {
	c := config.Defaults()
	pattern := make([]float64, 0, 400)
	for i := 0; i < 100; i++ {
		pattern = append(pattern, -6)
	}
	for i := 0; i < 200; i++ {
		pattern = append(pattern, -0.8)
	}
	for i := 0; i < 100; i++ {
		pattern = append(pattern, -0.001)
	}
	res := Choose([][]float64{pattern}, c)
	if res.Threshold > 0 {
		t.Fatalf("threshold %v should be <= 0", res.Threshold)
	}
}
