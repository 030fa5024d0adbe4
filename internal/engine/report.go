package engine

import (
	"github.com/JetBrains-Research/omnipeak/internal/score"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"
)

// logRankTable builds a peak/p-value/rank table and logs it at debug
// level, so verbose runs show how ties group before any external tooling
// re-ranks the output.
func logRankTable(logger *logrus.Logger, peaks []score.Peak) {
	if !logger.IsLevelEnabled(logrus.DebugLevel) || len(peaks) == 0 {
		return
	}

	chrom := make([]string, len(peaks))
	start := make([]int, len(peaks))
	end := make([]int, len(peaks))
	negLog10P := make([]float64, len(peaks))
	for i, p := range peaks {
		chrom[i] = p.Chrom
		start[i] = p.Start
		end[i] = p.End
		negLog10P[i] = p.NegLog10P
	}

	df := dataframe.New(
		series.New(chrom, series.String, "chrom"),
		series.New(start, series.Int, "start"),
		series.New(end, series.Int, "end"),
		series.New(negLog10P, series.Float, "neglog10p"),
	)
	df = assignRanks(df, 3)

	logger.Debugf("peak rank table:\n%s", df.String())
}

// assignRanks adds a "rank" column numbering distinct values of the pvalCol
// column in first-seen order, so tied p-values share a rank. pvalCol holds
// -log10(p); ties are still ties regardless of the transform's direction.
func assignRanks(df dataframe.DataFrame, pvalCol int) dataframe.DataFrame {
	rank := 0
	seen := make(map[float64]int)
	ranks := make([]int, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		v := df.Elem(i, pvalCol).Float()
		r, ok := seen[v]
		if !ok {
			rank++
			r = rank
			seen[v] = r
		}
		ranks[i] = r
	}
	return df.Mutate(series.New(ranks, series.Int, "rank"))
}
