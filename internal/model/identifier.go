package model

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"blainsmith.com/go/seahash"
)

// FitInfo is the full set of inputs a persisted fit was computed from. Two
// FitInfo values that differ in any field here describe incompatible
// models. Identifier hashes the treatment/control file stems (not full
// paths), the fragment, the bin size and the unique/no-regress-control
// markers; ChromSizes is not part of the hash.
type FitInfo struct {
	TreatmentPaths []string
	ControlPaths   []string
	BinSize        int
	Fragment       *int
	Unique         bool
	RegressControl bool
	ChromSizes     map[string]int
}

// Identifier computes the deterministic cache key for fi: an ordered,
// delimiter-separated reduction of its fields hashed with seahash.
func Identifier(fi FitInfo) string {
	var b strings.Builder
	writeStems(&b, fi.TreatmentPaths)
	b.WriteByte('|')
	writeStems(&b, fi.ControlPaths)
	b.WriteByte('|')
	fmt.Fprintf(&b, "bin=%d|", fi.BinSize)
	if fi.Fragment != nil {
		fmt.Fprintf(&b, "frag=%d|", *fi.Fragment)
	} else {
		b.WriteString("frag=none|")
	}
	if fi.Unique {
		b.WriteString("unique|")
	}
	if !fi.RegressControl {
		b.WriteString("no-regress-control|")
	}

	h := seahash.Sum64([]byte(b.String()))
	return strconv.FormatUint(h, 16)
}

func writeStems(b *strings.Builder, paths []string) {
	for i, p := range paths {
		if i > 0 {
			b.WriteByte(',')
		}
		base := filepath.Base(p)
		b.WriteString(strings.TrimSuffix(base, filepath.Ext(base)))
	}
}
