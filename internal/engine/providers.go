package engine

import (
	"fmt"

	"github.com/JetBrains-Research/omnipeak/internal/bamio"
	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/coverage"
	"github.com/JetBrains-Research/omnipeak/internal/errx"
	"github.com/JetBrains-Research/omnipeak/internal/genome"
	"github.com/JetBrains-Research/omnipeak/internal/hmm"
	"github.com/JetBrains-Research/omnipeak/internal/model"
	"github.com/pkg/errors"
)

// BuildProviders loads every BAM named in opts and wires up the per-replicate
// Signal providers the fitter needs, plus the hmm.Spec and model.FitInfo
// those providers determine. Analyze mode treats opts.Control (when present) as a
// literal background/IgG track shared by every treatment replicate's
// regression; compare mode repurposes opts.Control as the second treatment
// group's files, per the five-state HMM's two-group design, so D =
// len(Treatment)+len(Control) there instead.
func BuildProviders(opts config.Options, layout *genome.Layout) (hmm.Spec, []Signal, model.FitInfo, error) {
	if len(opts.Treatment) == 0 {
		return hmm.Spec{}, nil, model.FitInfo{}, errx.NewConfigError("treatment", fmt.Errorf("at least one treatment file is required"))
	}

	if opts.Compare {
		return buildCompareProviders(opts, layout)
	}
	return buildAnalyzeProviders(opts, layout)
}

func buildAnalyzeProviders(opts config.Options, layout *genome.Layout) (hmm.Spec, []Signal, model.FitInfo, error) {
	var controlReads []coverage.Read
	if len(opts.Control) > 0 {
		var err error
		controlReads, err = loadAndMergeReads(opts.Control, layout)
		if err != nil {
			return hmm.Spec{}, nil, model.FitInfo{}, err
		}
	}

	providers := make([]Signal, 0, len(opts.Treatment))
	for i, path := range opts.Treatment {
		treatmentReads, err := bamio.LoadReads(path, layout)
		if err != nil {
			return hmm.Spec{}, nil, model.FitInfo{}, errors.Wrap(errx.NewInputError(path, err), "engine: loading treatment")
		}
		rb, err := coverage.NewReadBased(replicateID(path, i), layout, treatmentReads, controlReads, opts.Fragment, opts.Unique, opts.RegressControl)
		if err != nil {
			return hmm.Spec{}, nil, model.FitInfo{}, errors.Wrapf(err, "engine: building coverage for %q", path)
		}
		providers = append(providers, rb)
	}

	spec := hmm.AnalyzeSpec(len(providers))
	fi := buildFitInfo(opts, layout)
	return spec, providers, fi, nil
}

func buildCompareProviders(opts config.Options, layout *genome.Layout) (hmm.Spec, []Signal, model.FitInfo, error) {
	if len(opts.Control) == 0 {
		return hmm.Spec{}, nil, model.FitInfo{}, errx.NewConfigError("compare", fmt.Errorf("compare mode requires a second treatment group (--control)"))
	}

	group1, err := buildGroupProviders(opts.Treatment, layout, opts)
	if err != nil {
		return hmm.Spec{}, nil, model.FitInfo{}, err
	}
	group2, err := buildGroupProviders(opts.Control, layout, opts)
	if err != nil {
		return hmm.Spec{}, nil, model.FitInfo{}, err
	}

	providers := append(group1, group2...)
	spec := hmm.CompareSpec(len(group1), len(group2))
	fi := buildFitInfo(opts, layout)
	return spec, providers, fi, nil
}

// buildGroupProviders loads one compare-mode replicate group; neither group
// has a background control of its own, matching the five-state HMM's
// symmetric group1-vs-group2 design rather than analyze's treatment-vs-IgG
// one.
func buildGroupProviders(paths []string, layout *genome.Layout, opts config.Options) ([]Signal, error) {
	providers := make([]Signal, 0, len(paths))
	for i, path := range paths {
		reads, err := bamio.LoadReads(path, layout)
		if err != nil {
			return nil, errors.Wrap(errx.NewInputError(path, err), "engine: loading group replicate")
		}
		rb, err := coverage.NewReadBased(replicateID(path, i), layout, reads, nil, opts.Fragment, opts.Unique, false)
		if err != nil {
			return nil, errors.Wrapf(err, "engine: building coverage for %q", path)
		}
		providers = append(providers, rb)
	}
	return providers, nil
}

func loadAndMergeReads(paths []string, layout *genome.Layout) ([]coverage.Read, error) {
	var all []coverage.Read
	for _, path := range paths {
		reads, err := bamio.LoadReads(path, layout)
		if err != nil {
			return nil, errors.Wrap(errx.NewInputError(path, err), "engine: loading control")
		}
		all = append(all, reads...)
	}
	return all, nil
}

func replicateID(path string, index int) string {
	return fmt.Sprintf("%s#%d", path, index)
}

func buildFitInfo(opts config.Options, layout *genome.Layout) model.FitInfo {
	chromSizes := make(map[string]int)
	for _, name := range layout.Names() {
		if n, ok := layout.Length(name); ok {
			chromSizes[name] = n
		}
	}
	return model.FitInfo{
		TreatmentPaths: opts.Treatment,
		ControlPaths:   opts.Control,
		BinSize:        opts.BinSize,
		Fragment:       opts.Fragment,
		Unique:         opts.Unique,
		RegressControl: opts.RegressControl,
		ChromSizes:     chromSizes,
	}
}
