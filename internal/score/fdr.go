package score

import (
	"math"
	"sort"
)

// benjaminiHochbergLog applies BH correction to logP (natural-log
// p-values) and returns log-q values in the original order.
func benjaminiHochbergLog(logP []float64) []float64 {
	m := len(logP)
	if m == 0 {
		return nil
	}
	idx := make([]int, m)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return logP[idx[a]] < logP[idx[b]] })

	logM := math.Log(float64(m))
	sortedQ := make([]float64, m)
	for rank, i := range idx {
		sortedQ[rank] = logP[i] + logM - math.Log(float64(rank+1))
	}
	for i := m - 2; i >= 0; i-- {
		if sortedQ[i] > sortedQ[i+1] {
			sortedQ[i] = sortedQ[i+1]
		}
	}

	logQ := make([]float64, m)
	for rank, i := range idx {
		logQ[i] = sortedQ[rank]
	}
	return logQ
}

// bonferroniLog applies the (non-adaptive) BF correction.
func bonferroniLog(logP []float64) []float64 {
	logM := math.Log(float64(len(logP)))
	logQ := make([]float64, len(logP))
	for i, p := range logP {
		logQ[i] = p + logM
	}
	return logQ
}
