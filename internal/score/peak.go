package score

// Peak is a final, scored, boundary-clipped candidate ready for BED6+3
// output.
type Peak struct {
	Chrom      string
	Start, End int // base pairs, half-open

	Value     float64 // enrichment-like magnitude over the control or noise baseline
	NegLog10P float64
	NegLog10Q float64
	Score     int // min(1000, floor(-log10(q)))

	logP float64
	logQ float64
}
