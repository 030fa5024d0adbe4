package engine

import (
	"os"

	"github.com/JetBrains-Research/omnipeak/internal/config"
	"github.com/JetBrains-Research/omnipeak/internal/errx"
	"github.com/JetBrains-Research/omnipeak/internal/hmm"
	"github.com/JetBrains-Research/omnipeak/internal/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// artifactKind tags which HMM alphabet a persisted model was fit under,
// stored alongside FitInfo so Load can refuse to reuse an analyze model
// for a compare run even if every other field happens to match.
const (
	kindAnalyze = "analyze"
	kindCompare = "compare"
)

func specKind(spec hmm.Spec) string {
	if spec.Kind == hmm.KindCompare {
		return kindCompare
	}
	return kindAnalyze
}

// fitOrLoad reuses a persisted model when --model names a path that already
// exists. An existing cache that can't be read, or whose FitInfo/Kind
// disagrees with the requested run, is a fatal error — a cache the caller
// explicitly pointed at and expected to reuse is not silently discarded. A
// path that doesn't exist yet is simply a cache miss: fit normally and, if
// --model was given, save the result there.
func fitOrLoad(spec hmm.Spec, chroms []hmm.ChromSeq, fi model.FitInfo, opts config.Options, c config.Constants, logger *logrus.Logger, cancel hmm.Cancel) (*model.Artifact, error) {
	if opts.ModelPath != "" {
		if _, err := os.Stat(opts.ModelPath); err == nil {
			return tryLoad(opts.ModelPath, spec, fi)
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(errx.NewCacheIOError(opts.ModelPath, err), "engine: stat model cache")
		}
	}

	result, err := hmm.Fit(spec, chroms, c, false, logger, cancel)
	if err != nil {
		if hmm.IsCancelled(err) {
			return nil, &errx.CancelledError{Stage: "HMM fit"}
		}
		return nil, errors.Wrap(err, "engine: fitting model")
	}

	artifact := &model.Artifact{
		Kind:    specKind(spec),
		Params:  result.Params,
		FitInfo: fi,
		LogNull: result.LogNull,
	}

	if opts.ModelPath != "" {
		if err := saveWithRetry(opts.ModelPath, artifact, fi, c, logger); err != nil {
			return nil, err
		}
	}
	return artifact, nil
}

// saveWithRetry persists artifact to path; a failed write deletes the
// partial file and is retried once, and the second failure is fatal.
func saveWithRetry(path string, artifact *model.Artifact, fi model.FitInfo, c config.Constants, logger *logrus.Logger) error {
	err := model.Save(path, artifact.Kind, artifact.Params, fi, artifact.LogNull, artifact.StatePosterior, c.ModelArtifactVersion)
	if err == nil {
		return nil
	}
	logger.Warnf("engine: persisting model to %q failed, retrying once: %v", path, err)
	os.Remove(path)
	if err := model.Save(path, artifact.Kind, artifact.Params, fi, artifact.LogNull, artifact.StatePosterior, c.ModelArtifactVersion); err != nil {
		os.Remove(path)
		return &errx.CacheIOError{Path: path, Cause: err, Retried: true}
	}
	return nil
}

func tryLoad(path string, spec hmm.Spec, fi model.FitInfo) (*model.Artifact, error) {
	artifact, err := model.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "engine: loading persisted model %q", path)
	}
	if artifact.Kind != specKind(spec) {
		return nil, &errx.ModelIncompatibleError{Field: "kind", Expected: specKind(spec), Actual: artifact.Kind}
	}
	if field, detail, ok := model.Diff(fi, artifact.FitInfo); !ok {
		return nil, &errx.ModelIncompatibleError{Field: field, Expected: "requested configuration", Actual: detail}
	}
	return artifact, nil
}
