package engine

import (
	"testing"

	"github.com/JetBrains-Research/omnipeak/internal/score"
	"github.com/sirupsen/logrus"
)

func TestLogRankTableHandlesTiedPValues(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	peaks := []score.Peak{
		{Chrom: "chr1", Start: 0, End: 100, NegLog10P: 3},
		{Chrom: "chr1", Start: 200, End: 300, NegLog10P: 3},
		{Chrom: "chr2", Start: 0, End: 100, NegLog10P: 5},
	}

	// exercised for side effects (logged output); must not panic on ties.
	logRankTable(logger, peaks)
}

func TestLogRankTableSkipsWhenNotDebug(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logRankTable(logger, []score.Peak{{Chrom: "chr1", Start: 0, End: 100}})
}
