package model

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/hmm"
)

func TestIdentifierDeterministic(t *testing.T) {
	frag := 150
	fi := FitInfo{
		TreatmentPaths: []string{"/a/treat.bam"},
		ControlPaths:   []string{"/a/control.bam"},
		BinSize:        100,
		Fragment:       &frag,
		Unique:         true,
	}
	id1 := Identifier(fi)
	id2 := Identifier(fi)
	if id1 != id2 {
		t.Fatalf("Identifier is not deterministic: %q vs %q", id1, id2)
	}

	fi2 := fi
	fi2.BinSize = 200
	if Identifier(fi2) == id1 {
		t.Fatalf("Identifier should change when bin size changes")
	}
}

func TestDiffDetectsFirstDisagreement(t *testing.T) {
	a := FitInfo{TreatmentPaths: []string{"x.bam"}, BinSize: 100}
	b := FitInfo{TreatmentPaths: []string{"x.bam"}, BinSize: 200}
	field, _, ok := Diff(a, b)
	if ok {
		t.Fatalf("expected a disagreement")
	}
	if field != "bin_size" {
		t.Fatalf("expected bin_size mismatch, got %q", field)
	}
}

func TestDiffAgreesOnIdenticalInfo(t *testing.T) {
	a := FitInfo{TreatmentPaths: []string{"x.bam"}, BinSize: 100, ChromSizes: map[string]int{"chr1": 1000}}
	b := FitInfo{TreatmentPaths: []string{"x.bam"}, BinSize: 100, ChromSizes: map[string]int{"chr1": 1000}}
	if _, _, ok := Diff(a, b); !ok {
		t.Fatalf("expected identical FitInfo to agree")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.omnipeak")

	spec := hmm.AnalyzeSpec(1)
	params := hmm.NewParams(spec)
	params.PriorLog = []float64{-0.1, -1.5, -2.5}
	params.Low[0] = hmm.NBParam{Mean: 2.5, Failures: 4.0}
	params.High[0] = hmm.NBParam{Mean: 12.0, Failures: 6.0}

	fi := FitInfo{
		TreatmentPaths: []string{"treat.bam"},
		BinSize:        100,
		ChromSizes:     map[string]int{"chr1": 1000},
	}
	logNull := map[string][]float64{
		"chr1": {-0.01, -0.02, -5.5, -0.01},
	}

	if err := Save(path, "analyze", params, fi, logNull, nil, 1); err != nil {
		t.Fatalf("Save: %v", err)
	}

	artifact, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if artifact.Identifier != Identifier(fi) {
		t.Fatalf("identifier mismatch: %q vs %q", artifact.Identifier, Identifier(fi))
	}
	if artifact.Kind != "analyze" {
		t.Fatalf("kind mismatch: %q", artifact.Kind)
	}
	if !reflect.DeepEqual(artifact.Params.PriorLog, params.PriorLog) {
		t.Fatalf("PriorLog mismatch: %v vs %v", artifact.Params.PriorLog, params.PriorLog)
	}
	if artifact.Params.Low[0] != params.Low[0] || artifact.Params.High[0] != params.High[0] {
		t.Fatalf("NB params mismatch")
	}

	got := artifact.LogNull["chr1"]
	want := logNull["chr1"]
	if len(got) != len(want) {
		t.Fatalf("log-null length mismatch: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if float32(got[i]) != float32(want[i]) {
			t.Fatalf("log-null[%d] mismatch: %v vs %v", i, got[i], want[i])
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected artifact file to exist: %v", err)
	}
}
