// Package config collects the tunable constants and per-run options that
// would otherwise be scattered as package-level globals. Everything here is
// built once in cmd/omnipeak and passed explicitly down the pipeline.
package config

import "time"

// Constants holds every numeric tunable of the pipeline. None of these are
// mutated after construction; callers that want a different value build a
// copy of Defaults and override the field.
type Constants struct {
	// HMM fitting
	EMConvergenceThreshold float64
	EMMaxIterations        int
	SNRGuardRatio          float64
	LowFractionDefault     float64 // fraction of nonzero bins used for mu_L
	HighFractionDefault    float64 // fraction of nonzero bins used for mu_H
	MinVarianceOverMean    float64 // enforced lower bound on NB variance/mean
	LogNullFloor           float64 // OMNIPEAK_MIN_SENSITIVITY, ~-1e-10

	// sensitivity sweep
	SweepSize             int
	DegenerateRunLength   int
	TriangleMinFractionI1 float64
	DefaultFDRFallbackLn  float64

	// candidate building and gap estimation
	FragmentationGapMaxBP     float64 // 5000 bp window for gap search
	FragmentationThresholdBP  float64 // 500 bp
	SummitBandwidthBins       float64
	SummitMinModeLengthFactor float64 // 3x bandwidth
	SummitMinDistanceFactor   float64 // 2x bandwidth
	UnplacedContigPatterns    []string

	// peak scoring and filtering
	BlockIntraGapBins     int
	BlockPercentile       float64
	ClipFraction          float64
	ClipShrinkFractions   []float64
	ClipMaxSidePct        float64
	PoissonFactorialCap   int
	PoissonConvergenceEps float64

	// misc
	ModelArtifactVersion int
	Threads              int // chromosome-granularity worker pool size; 1 means sequential
}

// Defaults returns the standard constants.
func Defaults() Constants {
	return Constants{
		EMConvergenceThreshold: 1e-4,
		EMMaxIterations:        10,
		SNRGuardRatio:          1.0,
		LowFractionDefault:     0.50,
		HighFractionDefault:    0.10,
		MinVarianceOverMean:    1 + 1e-3,
		LogNullFloor:           -1e-10,

		SweepSize:             100,
		DegenerateRunLength:   5,
		TriangleMinFractionI1: 0.2,
		DefaultFDRFallbackLn:  -2.995732273553991, // ln(0.05)

		FragmentationGapMaxBP:     5000,
		FragmentationThresholdBP:  500,
		SummitBandwidthBins:       5,
		SummitMinModeLengthFactor: 3,
		SummitMinDistanceFactor:   2,
		UnplacedContigPatterns:    []string{"_", "random", "un"},

		BlockIntraGapBins:     3,
		BlockPercentile:       0.5,
		ClipFraction:          0.4,
		ClipShrinkFractions:   []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0, 1.5, 2.0, 5.0, 10.0},
		ClipMaxSidePct:        0.4,
		PoissonFactorialCap:   10001,
		PoissonConvergenceEps: 1e-5,

		ModelArtifactVersion: 1,
		Threads:              1,
	}
}

// Options carries per-run paths and flags, bound off the argparse.Parser
// in cmd/omnipeak and passed down as one value.
type Options struct {
	Treatment  []string
	Control    []string
	ChromSizes string
	Blacklist  string
	ModelPath  string

	BinSize  int
	Fragment *int // nullable: unset means "use read pairs as-is"

	FDR float64
	Gap *int // nullable: caller-supplied merge gap overrides estimation

	Unique         bool
	RegressControl bool
	Summits        bool
	Broad          bool

	OutPrefix string
	Threads   int
	Verbose   bool
	Compare   bool // selects the five-state HMM
	BigWig    bool // also write "<prefix>.bw", CPM-normalized with blacklist zeroed

	StartTime time.Time
}

// DefaultOptions returns the argparse flag defaults.
func DefaultOptions() Options {
	return Options{
		BinSize:        100,
		FDR:            0.05,
		RegressControl: true,
		Threads:        1,
		OutPrefix:      "omnipeak",
		StartTime:      time.Now(),
	}
}
