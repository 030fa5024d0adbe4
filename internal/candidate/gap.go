package candidate

import (
	"math"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/runs"
)

// EstimateGap chooses the inter-candidate merge gap. callerGap, if
// non-nil, always wins. summitsMode forces gap=0. Otherwise the
// fragmentation score S is computed by counting candidates at every
// integer gap g in [0, Gmax) and measuring how fast the normalized curve
// f(g)=count(g)/count(0) falls toward zero.
func EstimateGap(mask []bool, binSize int, callerGap *int, summitsMode bool, c config.Constants) (gap int, fragmentationScore float64, detected bool) {
	if callerGap != nil {
		return *callerGap, 0, true
	}
	if summitsMode {
		return 0, 0, true
	}

	gMax := int(math.Ceil(c.FragmentationGapMaxBP / float64(binSize)))
	if gMax < 1 {
		gMax = 1
	}
	count0 := runs.Count(mask, 0)
	if count0 == 0 {
		return 0, 0, false
	}
	var sumF float64
	for g := 0; g < gMax; g++ {
		cg := runs.Count(mask, g)
		f := float64(cg) / float64(count0)
		sumF += f
	}
	s := float64(gMax) - sumF
	fragThresholdBins := c.FragmentationThresholdBP / float64(binSize)
	if s < fragThresholdBins {
		return 0, s, true
	}
	g := int(math.Floor(s - fragThresholdBins))
	if g < 0 {
		g = 0
	}
	return g, s, true
}
