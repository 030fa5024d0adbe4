package model

import "fmt"

// Diff reports the first field on which requested and persisted disagree,
// the "human-readable diff indicating which field disagrees" named for
// model loading. ok is true when the two are compatible.
func Diff(requested, persisted FitInfo) (field string, detail string, ok bool) {
	if !stringSlicesEqual(requested.TreatmentPaths, persisted.TreatmentPaths) {
		return "treatment_paths", fmt.Sprintf("requested %v, persisted %v", requested.TreatmentPaths, persisted.TreatmentPaths), false
	}
	if !stringSlicesEqual(requested.ControlPaths, persisted.ControlPaths) {
		return "control_paths", fmt.Sprintf("requested %v, persisted %v", requested.ControlPaths, persisted.ControlPaths), false
	}
	if requested.BinSize != persisted.BinSize {
		return "bin_size", fmt.Sprintf("requested %d, persisted %d", requested.BinSize, persisted.BinSize), false
	}
	if !fragmentEqual(requested.Fragment, persisted.Fragment) {
		return "fragment", fmt.Sprintf("requested %s, persisted %s", fragmentString(requested.Fragment), fragmentString(persisted.Fragment)), false
	}
	if requested.Unique != persisted.Unique {
		return "unique", fmt.Sprintf("requested %v, persisted %v", requested.Unique, persisted.Unique), false
	}
	if requested.RegressControl != persisted.RegressControl {
		return "regress_control", fmt.Sprintf("requested %v, persisted %v", requested.RegressControl, persisted.RegressControl), false
	}
	if field, detail, ok := chromSizesDiff(requested.ChromSizes, persisted.ChromSizes); !ok {
		return field, detail, false
	}
	return "", "", true
}

func chromSizesDiff(requested, persisted map[string]int) (string, string, bool) {
	if len(requested) != len(persisted) {
		return "chrom_sizes", fmt.Sprintf("requested %d chromosomes, persisted %d", len(requested), len(persisted)), false
	}
	for name, length := range requested {
		other, ok := persisted[name]
		if !ok {
			return "chrom_sizes", fmt.Sprintf("chromosome %q missing from persisted model", name), false
		}
		if other != length {
			return "chrom_sizes", fmt.Sprintf("chromosome %q: requested length %d, persisted %d", name, length, other), false
		}
	}
	return "", "", true
}

func fragmentEqual(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func fragmentString(f *int) string {
	if f == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *f)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
