// Package blacklist parses a BED3 exclusion track into a merged,
// per-chromosome range list with fast overlap lookup: the scorer consults
// it before scoring, and the optional BigWig exporter before writing
// counts-per-million-normalized coverage. BED parsing here is the bare
// three-column case gonetics' importers don't cover (those are
// bedGraph/BigWig-specific); a hand-written scanner is the same shape our
// own bed package uses for its own output format.
package blacklist

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type interval struct{ start, end int }

// Blacklist is an immutable, merged, per-chromosome interval set.
type Blacklist struct {
	ranges map[string][]interval
}

// Empty returns a Blacklist with no excluded regions, the default when no
// --blacklist flag is given.
func Empty() *Blacklist {
	return &Blacklist{ranges: map[string][]interval{}}
}

// Load parses a BED3 (or wider, extra columns ignored) file at path.
func Load(path string) (*Blacklist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "blacklist: open %q", path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads BED3+ records from r and merges overlapping/adjacent ranges
// per chromosome.
func Parse(r io.Reader) (*Blacklist, error) {
	raw := make(map[string][]interval)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "blacklist: bad start %q", fields[1])
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, errors.Wrapf(err, "blacklist: bad end %q", fields[2])
		}
		raw[fields[0]] = append(raw[fields[0]], interval{start, end})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	merged := make(map[string][]interval, len(raw))
	for chrom, ivs := range raw {
		merged[chrom] = mergeIntervals(ivs)
	}
	return &Blacklist{ranges: merged}, nil
}

func mergeIntervals(ivs []interval) []interval {
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })
	out := ivs[:0:0]
	for _, iv := range ivs {
		if len(out) > 0 && iv.start <= out[len(out)-1].end {
			if iv.end > out[len(out)-1].end {
				out[len(out)-1].end = iv.end
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Overlaps reports whether [start, end) on chrom intersects any excluded
// region, satisfying the scorer's Blacklist interface.
func (bl *Blacklist) Overlaps(chrom string, start, end int) bool {
	if bl == nil {
		return false
	}
	ivs := bl.ranges[chrom]
	if len(ivs) == 0 {
		return false
	}
	// Ranges are sorted and non-overlapping; find the first range whose
	// end exceeds start, then check it actually starts before end.
	i := sort.Search(len(ivs), func(i int) bool { return ivs[i].end > start })
	return i < len(ivs) && ivs[i].start < end
}
