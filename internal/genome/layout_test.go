package genome

import "testing"

func TestNewLayoutSortsAndValidates(t *testing.T) {
	l, err := NewLayout([]string{"chr2", "chr1", "chr10"}, []int{500, 1000, 250}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := l.Names()
	want := []string{"chr1", "chr10", "chr2"}
	for i, w := range want {
		if names[i] != w {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], w)
		}
	}
}

func TestNewLayoutRejectsZeroLength(t *testing.T) {
	if _, err := NewLayout([]string{"chr1"}, []int{0}, 100); err == nil {
		t.Fatal("expected error for zero-length chromosome")
	}
}

func TestNumBinsCeilDiv(t *testing.T) {
	l, err := NewLayout([]string{"chr1"}, []int{250}, 100)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := l.NumBins("chr1")
	if !ok || n != 3 {
		t.Fatalf("NumBins = %d, ok=%v, want 3, true", n, ok)
	}
	start, end, ok := l.BinRange("chr1", 2)
	if !ok || start != 200 || end != 250 {
		t.Fatalf("BinRange(2) = [%d,%d) ok=%v, want [200,250) true", start, end, ok)
	}
}

func TestFilterUnplaced(t *testing.T) {
	l, err := NewLayout([]string{"chr1", "chr1_random", "chrUn"}, []int{100, 100, 100}, 10)
	if err != nil {
		t.Fatal(err)
	}
	filtered := l.Filter(func(name string) bool { return !IsUnplaced(name) })
	if len(filtered.Names()) != 1 || filtered.Names()[0] != "chr1" {
		t.Fatalf("Filter kept %v, want [chr1]", filtered.Names())
	}
}

func TestBinIndexRoundTrip(t *testing.T) {
	l, err := NewLayout([]string{"chr1", "chr2"}, []int{250, 150}, 100)
	if err != nil {
		t.Fatal(err)
	}
	bi := NewBinIndex(l)
	if bi.Total() != 3+2 {
		t.Fatalf("Total = %d, want 5", bi.Total())
	}
	g, err := bi.Global("chr2", 1)
	if err != nil {
		t.Fatal(err)
	}
	name, local, err := bi.Locate(g)
	if err != nil || name != "chr2" || local != 1 {
		t.Fatalf("Locate(%d) = %q,%d,%v want chr2,1,nil", g, name, local, err)
	}
}
