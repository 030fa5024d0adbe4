// Package bed serializes and parses the BED6+3 peak format the scorer
// emits: chrom, start, end, name, score, strand, value, -log10(p),
// -log10(q). Written directly rather than through gonetics.GRanges since
// that type's export path only covers three columns.
package bed

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JetBrains-Research/omnipeak/internal/score"
)

// Record is one parsed BED6+3 line.
type Record struct {
	Chrom      string
	Start, End int
	Name       string
	Score      int
	Strand     byte
	Value      float64
	NegLog10P  float64
	NegLog10Q  float64
}

// Serialize writes peaks to w as BED6+3, one line per peak, naming each
// "<prefix>_<n>" with n a 1-based counter over the order given. Callers
// are responsible for sorting peaks deterministically beforehand.
func Serialize(w io.Writer, peaks []score.Peak, prefix string) error {
	bw := bufio.NewWriter(w)
	for i, p := range peaks {
		name := fmt.Sprintf("%s_%d", prefix, i+1)
		_, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%s\t%d\t.\t%s\t%s\t%s\n",
			p.Chrom, p.Start, p.End, name, p.Score,
			formatFloat(p.Value), formatFloat(p.NegLog10P), formatFloat(p.NegLog10Q))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatFloat renders v with strconv, which is always invariant-locale:
// no grouping separators, '.' as the decimal point regardless of the
// process environment.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Parse reads BED6+3 lines from r, skipping blank lines.
func Parse(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("bed: line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseLine(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 9 {
		return Record{}, fmt.Errorf("expected 9 tab-separated fields, got %d", len(fields))
	}
	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("start: %w", err)
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return Record{}, fmt.Errorf("end: %w", err)
	}
	sc, err := strconv.Atoi(fields[4])
	if err != nil {
		return Record{}, fmt.Errorf("score: %w", err)
	}
	value, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return Record{}, fmt.Errorf("value: %w", err)
	}
	negLog10P, err := strconv.ParseFloat(fields[7], 64)
	if err != nil {
		return Record{}, fmt.Errorf("-log10(p): %w", err)
	}
	negLog10Q, err := strconv.ParseFloat(fields[8], 64)
	if err != nil {
		return Record{}, fmt.Errorf("-log10(q): %w", err)
	}
	return Record{
		Chrom:     fields[0],
		Start:     start,
		End:       end,
		Name:      fields[3],
		Score:     sc,
		Strand:    fields[5][0],
		Value:     value,
		NegLog10P: negLog10P,
		NegLog10Q: negLog10Q,
	}, nil
}
