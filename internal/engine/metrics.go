package engine

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/errx"
	"github.com/JetBrains-Research/omnipeak/internal/score"
	"github.com/pkg/errors"
)

const version = "1.0.0"

// Metrics is the run summary sidecar written next to the peak output.
type Metrics struct {
	Version string `json:"omnipeak_version"`
	Date    string `json:"date"`
	Elapsed string `json:"elapsed"`
	Prefix  string `json:"prefix"`
	Command string `json:"command"`
	Mode    string `json:"mode"`
	Peaks   int    `json:"peak_counts"`
}

// BuildMetrics summarizes a completed run.
func BuildMetrics(opts config.Options, args []string, peaks []score.Peak) *Metrics {
	mode := kindAnalyze
	if opts.Compare {
		mode = kindCompare
	}
	return &Metrics{
		Version: version,
		Date:    time.Now().Format("2006-01-02 3:4:5 PM"),
		Elapsed: time.Since(opts.StartTime).String(),
		Prefix:  opts.OutPrefix,
		Command: strings.Join(args, " "),
		Mode:    mode,
		Peaks:   len(peaks),
	}
}

// Log writes m to "<prefix>_omnipeak.json".
func (m *Metrics) Log(prefix string) error {
	raw, err := json.MarshalIndent(m, "", "\t")
	if err != nil {
		return errors.Wrap(err, "engine: marshal metrics")
	}
	path := prefix + "_omnipeak.json"
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errx.NewCacheIOError(path, err), "engine: create metrics file")
	}
	defer f.Close()
	if _, err := f.Write(raw); err != nil {
		return errors.Wrap(errx.NewCacheIOError(path, err), "engine: write metrics file")
	}
	if _, err := f.WriteString("\n"); err != nil {
		return errors.Wrap(errx.NewCacheIOError(path, err), "engine: write metrics file")
	}
	return nil
}
