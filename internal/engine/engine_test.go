package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/blacklist"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/coverage"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	"github.com/JetBrains-Research/omnipeak/internal/hmm"
	"github.com/JetBrains-Research/omnipeak/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// knuthPoisson draws a Poisson(lambda) sample from src, the textbook
// product-of-uniforms algorithm; good enough for small test lambdas and
// keeps these synthetic scenarios independent of any particular RNG type.
func knuthPoisson(src *rand.Rand, lambda float64) int {
	lim := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= src.Float64()
		if p <= lim {
			return k
		}
		k++
	}
}

// fakeSignal adapts a coverage.Track (and an optional control track) to the
// Signal interface without going through bamio, so scenario tests can build
// synthetic tracks in-process.
type fakeSignal struct {
	id      string
	track   *coverage.Track
	control *coverage.Track
}

func (f *fakeSignal) ID() string                     { return f.id }
func (f *fakeSignal) Layout() *genome.Layout         { return f.track.Layout() }
func (f *fakeSignal) Bin(name string) ([]int, error) { return f.track.Bin(name) }
func (f *fakeSignal) Score(name string, start, end int) (int, error) {
	return f.track.Score(name, start, end)
}
func (f *fakeSignal) ControlAvailable() bool { return f.control != nil }
func (f *fakeSignal) ControlScore(name string, start, end int) (int, error) {
	if f.control == nil {
		return 0, nil
	}
	return f.control.Score(name, start, end)
}

func threeChromLayout(t *testing.T, binSize, numBins int) *genome.Layout {
	t.Helper()
	names := []string{"chr1", "chr2", "chr3"}
	lengths := []int{numBins * binSize, numBins * binSize, numBins * binSize}
	layout, err := genome.NewLayout(names, lengths, binSize)
	require.NoError(t, err)
	return layout
}

func poissonTrack(t *testing.T, layout *genome.Layout, lambda func(chrom string, bin int) float64, seed uint64) *coverage.Track {
	t.Helper()
	track := coverage.NewTrack(layout)
	src := rand.New(rand.NewSource(int64(seed)))
	for _, name := range layout.Names() {
		n, _ := layout.NumBins(name)
		values := make([]int, n)
		for k := 0; k < n; k++ {
			l := lambda(name, k)
			if l <= 0 {
				continue
			}
			values[k] = knuthPoisson(src, l)
		}
		require.NoError(t, track.Set(name, values))
	}
	return track
}

func TestScenarioIdenticalTreatmentsCompareYieldsZeroPeaks(t *testing.T) {
	layout := threeChromLayout(t, 200, 300)
	lambda := func(chrom string, bin int) float64 { return 3 }
	track := poissonTrack(t, layout, lambda, 1)

	spec := hmm.CompareSpec(1, 1)
	providers := []Signal{
		&fakeSignal{id: "g1", track: track},
		&fakeSignal{id: "g2", track: track},
	}
	c := config.Defaults()
	opts := config.DefaultOptions()

	peaks, _, err := Run(spec, providers, layout, model.FitInfo{}, blacklist.Empty(), opts, c, testLogger(), nil)
	require.NoError(t, err)
	require.Empty(t, peaks, "identical treatment groups must not produce differential peaks")
}

func TestScenarioSingleEnrichedRegionAnalyzeRecoversPeak(t *testing.T) {
	layout := threeChromLayout(t, 200, 5000)
	lambda := func(chrom string, bin int) float64 {
		if chrom != "chr1" {
			return 1
		}
		switch {
		case bin >= 1000 && bin < 2000:
			return 50
		case bin >= 3000 && bin < 4000:
			return 0
		default:
			return 1
		}
	}
	track := poissonTrack(t, layout, lambda, 2)

	spec := hmm.AnalyzeSpec(1)
	providers := []Signal{&fakeSignal{id: "treatment", track: track}}
	c := config.Defaults()
	opts := config.DefaultOptions()
	opts.FDR = 0.05

	peaks, _, err := Run(spec, providers, layout, model.FitInfo{}, blacklist.Empty(), opts, c, testLogger(), nil)
	require.NoError(t, err)

	wantStart, wantEnd := 1100*200, 1900*200
	found := false
	for _, p := range peaks {
		if p.Chrom == "chr1" && p.Start <= wantStart && p.End >= wantEnd {
			found = true
			break
		}
	}
	require.True(t, found, "expected a peak covering [%d,%d) on chr1, got %+v", wantStart, wantEnd, peaks)
}

func TestScenarioPersistenceRoundTrip(t *testing.T) {
	layout := threeChromLayout(t, 200, 300)
	lambda := func(chrom string, bin int) float64 {
		if bin >= 100 && bin < 150 {
			return 40
		}
		return 2
	}
	track := poissonTrack(t, layout, lambda, 3)

	spec := hmm.AnalyzeSpec(1)
	providers := []Signal{&fakeSignal{id: "treatment", track: track}}
	c := config.Defaults()
	opts := config.DefaultOptions()
	opts.ModelPath = t.TempDir() + "/model.omnipeak"
	fi := model.FitInfo{TreatmentPaths: []string{"synthetic.bam"}, BinSize: 200}

	peaksFirst, artifactFirst, err := Run(spec, providers, layout, fi, blacklist.Empty(), opts, c, testLogger(), nil)
	require.NoError(t, err)

	peaksSecond, artifactSecond, err := Run(spec, providers, layout, fi, blacklist.Empty(), opts, c, testLogger(), nil)
	require.NoError(t, err)

	require.Equal(t, len(peaksFirst), len(peaksSecond))
	require.Equal(t, artifactFirst.Params.PriorLog, artifactSecond.Params.PriorLog)
	// The persisted blob stores log-null as float32, so the reloaded vectors
	// match the fresh fit bit-for-bit at that precision.
	for chrom, ln := range artifactFirst.LogNull {
		loaded := artifactSecond.LogNull[chrom]
		require.Len(t, loaded, len(ln))
		for i := range ln {
			require.Equal(t, float32(ln[i]), float32(loaded[i]), "chrom %s bin %d", chrom, i)
		}
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
