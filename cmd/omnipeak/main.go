// Command omnipeak calls peaks from binned coverage tracks. It exposes an
// "analyze" subcommand (three-state HMM, treatment vs. optional background)
// and a "compare" subcommand (five-state HMM, two treatment groups).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/JetBrains-Research/omnipeak/internal/bamio"
	"github.com/JetBrains-Research/omnipeak/internal/bed"
	"github.com/JetBrains-Research/omnipeak/internal/blacklist"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/engine"
	"github.com/JetBrains-Research/omnipeak/internal/errx"
	"github.com/JetBrains-Research/omnipeak/internal/logx"
	"github.com/akamensky/argparse"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// unset is the sentinel for nullable --fragment/--gap int flags, since
// argparse has no native optional-int type.
const unset = -1

// flagSet is the pointer bundle addFlags binds onto one subcommand; analyze
// and compare share every field, differing only in how Control is
// interpreted downstream (background track vs. second treatment group).
type flagSet struct {
	treatment  *string
	control    *string
	chromSizes *string
	blacklist  *string
	model      *string
	prefix     *string
	bin        *int
	fragment   *int
	gap        *int
	fdr        *float64
	threads    *int
	unique     *bool
	noRegress  *bool
	summits    *bool
	broad      *bool
	bigwig     *bool
	verbose    *bool
}

func addFlags(cmd *argparse.Command) *flagSet {
	return &flagSet{
		treatment:  cmd.String("t", "treatment", &argparse.Options{Required: true, Help: "Comma-separated treatment BAM file(s)"}),
		control:    cmd.String("c", "control", &argparse.Options{Help: "Comma-separated control/background BAM file(s) (second group, for compare)"}),
		chromSizes: cmd.String("s", "chromsizes", &argparse.Options{Help: "Chromosome sizes file (default: read from BAM header)"}),
		blacklist:  cmd.String("", "blacklist", &argparse.Options{Help: "BED file of regions to exclude from scoring"}),
		model:      cmd.String("", "model", &argparse.Options{Help: "Persisted model cache path; reused if compatible, else written"}),
		prefix:     cmd.String("o", "prefix", &argparse.Options{Help: "Output prefix", Default: "omnipeak"}),
		bin:        cmd.Int("b", "bin", &argparse.Options{Help: "Bin size (bp)", Default: 100}),
		fragment:   cmd.Int("", "fragment", &argparse.Options{Help: "Fixed fragment length (bp); default uses read pairs as-is", Default: unset}),
		gap:        cmd.Int("g", "gap", &argparse.Options{Help: "Merge gap (bins); default estimates from fragmentation", Default: unset}),
		fdr:        cmd.Float("p", "fdr", &argparse.Options{Help: "FDR significance threshold", Default: 0.05}),
		threads:    cmd.Int("", "threads", &argparse.Options{Help: "Chromosome-granularity worker threads", Default: 1}),
		unique:     cmd.Flag("u", "unique", &argparse.Options{Help: "Deduplicate reads by position before binning"}),
		noRegress:  cmd.Flag("", "no-regress-control", &argparse.Options{Help: "Disable linear control regression"}),
		summits:    cmd.Flag("", "summits", &argparse.Options{Help: "Emit summit-split sub-peaks"}),
		broad:      cmd.Flag("", "broad", &argparse.Options{Help: "Use the broad-mark bin size default"}),
		bigwig:     cmd.Flag("", "bigwig", &argparse.Options{Help: "Also write a CPM-normalized BigWig track"}),
		verbose:    cmd.Flag("v", "verbose", &argparse.Options{Help: "Verbose logging"}),
	}
}

func splitPaths(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nullableInt(v int) *int {
	if v == unset {
		return nil
	}
	cp := v
	return &cp
}

func (fs *flagSet) toOptions(compare bool) config.Options {
	opts := config.DefaultOptions()
	opts.Treatment = splitPaths(*fs.treatment)
	opts.Control = splitPaths(*fs.control)
	opts.ChromSizes = *fs.chromSizes
	opts.Blacklist = *fs.blacklist
	opts.ModelPath = *fs.model
	opts.OutPrefix = *fs.prefix
	opts.BinSize = *fs.bin
	opts.Fragment = nullableInt(*fs.fragment)
	opts.Gap = nullableInt(*fs.gap)
	opts.FDR = *fs.fdr
	opts.Threads = *fs.threads
	opts.Unique = *fs.unique
	opts.RegressControl = !*fs.noRegress
	opts.Summits = *fs.summits
	opts.Broad = *fs.broad
	opts.BigWig = *fs.bigwig
	opts.Verbose = *fs.verbose
	opts.Compare = compare
	if opts.Broad {
		opts.BinSize = 5000
	}
	return opts
}

func main() {
	parser := argparse.NewParser("omnipeak", "Omnipeak calls peaks from binned coverage tracks (ChIP-seq/ATAC-seq/DNase-seq/scATAC-seq).")
	showVersion := parser.Flag("", "version", &argparse.Options{Help: "Print the omnipeak version"})

	analyzeCmd := parser.NewCommand("analyze", "Call peaks for a single treatment group (three-state HMM)")
	analyzeFlags := addFlags(analyzeCmd)

	compareCmd := parser.NewCommand("compare", "Call differential peaks between two treatment groups (five-state HMM)")
	compareFlags := addFlags(compareCmd)

	// note: "Required" flags clash with a bare --version, so the version
	// check runs before the parse error is reported.
	err := parser.Parse(os.Args)

	if *showVersion {
		fmt.Println("omnipeak version:", version)
		os.Exit(0)
	}
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	var opts config.Options
	switch {
	case analyzeCmd.Happened():
		opts = analyzeFlags.toOptions(false)
	case compareCmd.Happened():
		opts = compareFlags.toOptions(true)
	default:
		fmt.Print(parser.Usage(fmt.Errorf("expected \"analyze\" or \"compare\"")))
		os.Exit(1)
	}

	logger := logx.NewDefault(opts.Verbose)
	if err := run(opts, os.Args, logger); err != nil {
		logger.Error(err)
		os.Exit(exitCode(err))
	}
}

func run(opts config.Options, args []string, logger *logrus.Logger) error {
	c := config.Defaults()
	c.Threads = opts.Threads

	if opts.FDR <= 0 || opts.FDR >= 1 {
		return errx.NewConfigError("fdr", fmt.Errorf("must be in (0,1), got %v", opts.FDR))
	}
	if len(opts.Treatment) == 0 {
		return errx.NewConfigError("treatment", fmt.Errorf("at least one treatment file is required"))
	}
	if opts.Compare && len(opts.Control) == 0 {
		return errx.NewConfigError("control", fmt.Errorf("compare mode requires a second treatment group"))
	}

	genomeBam := opts.Treatment[0]
	layout, err := bamio.LoadGenome(genomeBam, opts.ChromSizes, opts.BinSize)
	if err != nil {
		return errors.Wrap(errx.NewInputError(genomeBam, err), "omnipeak: loading genome layout")
	}

	spec, providers, fi, err := engine.BuildProviders(opts, layout)
	if err != nil {
		return err
	}

	var bl *blacklist.Blacklist
	if opts.Blacklist != "" {
		bl, err = blacklist.Load(opts.Blacklist)
		if err != nil {
			return errors.Wrap(errx.NewInputError(opts.Blacklist, err), "omnipeak: loading blacklist")
		}
	}

	peaks, _, err := engine.Run(spec, providers, layout, fi, bl, opts, c, logger, nil)
	if err != nil {
		return err
	}

	outPath := opts.OutPrefix + "_peaks.bed"
	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(errx.NewCacheIOError(outPath, err), "omnipeak: creating output file")
	}
	defer f.Close()
	if err := bed.Serialize(f, peaks, opts.OutPrefix); err != nil {
		return errors.Wrap(err, "omnipeak: writing peaks")
	}

	metrics := engine.BuildMetrics(opts, args, peaks)
	if err := metrics.Log(opts.OutPrefix); err != nil {
		logger.Warnf("omnipeak: could not write metrics: %v", err)
	}

	logger.Infof("wrote %d peaks to %s", len(peaks), outPath)
	return nil
}

// exitCode maps the errx error categories onto process exit codes;
// cmd/omnipeak is the only place in the repository that inspects a
// concrete errx type.
func exitCode(err error) int {
	var cfgErr *errx.ConfigError
	var inputErr *errx.InputError
	var modelErr *errx.ModelIncompatibleError
	var cacheErr *errx.CacheIOError
	switch {
	case errors.As(err, &cfgErr):
		return 1
	case errors.As(err, &inputErr):
		return 2
	case errors.As(err, &modelErr):
		return 3
	case errx.IsCancelled(err):
		return 130
	case errors.As(err, &cacheErr):
		return 6
	default:
		return 1
	}
}
