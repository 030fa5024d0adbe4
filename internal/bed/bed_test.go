package bed

import (
	"bytes"
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/score"
)

func TestSerializeParseRoundTrip(t *testing.T) {
	peaks := []score.Peak{
		{Chrom: "chr1", Start: 100, End: 300, Value: 4.5, NegLog10P: 3.2, NegLog10Q: 2.1, Score: 210},
		{Chrom: "chr2", Start: 0, End: 150, Value: 1.25, NegLog10P: 10.0, NegLog10Q: 9.5, Score: 1000},
	}

	var buf bytes.Buffer
	if err := Serialize(&buf, peaks, "sample"); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	records, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != len(peaks) {
		t.Fatalf("expected %d records, got %d", len(peaks), len(records))
	}

	for i, p := range peaks {
		r := records[i]
		if r.Chrom != p.Chrom || r.Start != p.Start || r.End != p.End {
			t.Fatalf("record %d coordinates mismatch: %+v vs peak %+v", i, r, p)
		}
		if r.Score != p.Score {
			t.Fatalf("record %d score mismatch: %d vs %d", i, r.Score, p.Score)
		}
		if r.Value != p.Value || r.NegLog10P != p.NegLog10P || r.NegLog10Q != p.NegLog10Q {
			t.Fatalf("record %d numeric field mismatch: %+v vs peak %+v", i, r, p)
		}
	}
	if records[0].Name != "sample_1" || records[1].Name != "sample_2" {
		t.Fatalf("unexpected names: %q, %q", records[0].Name, records[1].Name)
	}
	if records[0].Strand != '.' {
		t.Fatalf("expected strand '.', got %q", records[0].Strand)
	}
}
