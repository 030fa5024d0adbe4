// Package model implements persisted fit artifacts: a deterministic cache
// identifier, a tar-of-(JSON+JSON+blob) on-disk format, and the
// incompatibility diff used when a cached fit doesn't match the requested
// run. The schema is explicit and version-tagged; no type names are ever
// stored, only the small "analyze"/"compare" kind discriminator.
package model

import (
	"archive/tar"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"

	"github.com/JetBrains-Research/omnipeak/internal/errx"
	"github.com/JetBrains-Research/omnipeak/internal/hmm"
	"github.com/klauspost/compress/pgzip"
	"github.com/pkg/errors"
)

const (
	entryModel     = "model.json"
	entryFitInfo   = "fitinfo.json"
	entryLogNull   = "lognull.bin"
	entryPosterior = "posterior.bin"
)

// modelDoc is the tagged, versioned JSON schema for the fitted parameters;
// Kind discriminates the two state alphabets.
type modelDoc struct {
	Version int         `json:"version"`
	Kind    string      `json:"kind"` // "analyze" | "compare"
	Params  *hmm.Params `json:"params"`
}

// fitInfoDoc is the JSON fit-information blob: FitInfo plus the derived
// identifier and the chromosome order/bin counts needed to split the raw
// log-null blob back into per-chromosome slices.
type fitInfoDoc struct {
	FitInfo
	Identifier string         `json:"identifier"`
	ChromOrder []string       `json:"chrom_order"`
	BinCounts  map[string]int `json:"bin_counts"`
}

// Artifact is the in-memory result of loading a persisted model.
type Artifact struct {
	Kind           string
	Params         *hmm.Params
	FitInfo        FitInfo
	Identifier     string
	LogNull        map[string][]float64
	StatePosterior map[string][][]float64
}

// Save writes params, fi, and the per-chromosome log-null (and optional
// posterior) vectors to path as a gzip-compressed tar archive.
func Save(path string, kind string, params *hmm.Params, fi FitInfo, logNull map[string][]float64, statePosterior map[string][][]float64, artifactVersion int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errx.NewCacheIOError(path, err), "model: create")
	}
	defer f.Close()

	gz := pgzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	chromOrder := sortedKeys(logNull)
	binCounts := make(map[string]int, len(chromOrder))
	for _, name := range chromOrder {
		binCounts[name] = len(logNull[name])
	}

	doc := modelDoc{Version: artifactVersion, Kind: kind, Params: params}
	if err := writeJSONEntry(tw, entryModel, doc); err != nil {
		return err
	}

	fiDoc := fitInfoDoc{FitInfo: fi, Identifier: Identifier(fi), ChromOrder: chromOrder, BinCounts: binCounts}
	if err := writeJSONEntry(tw, entryFitInfo, fiDoc); err != nil {
		return err
	}

	if err := writeFloatBlob(tw, entryLogNull, chromOrder, logNull); err != nil {
		return err
	}

	if statePosterior != nil {
		if err := writePosteriorBlob(tw, chromOrder, statePosterior); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(errx.NewCacheIOError(path, err), "model: close tar")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(errx.NewCacheIOError(path, err), "model: close gzip")
	}
	return nil
}

// Load reads back an Artifact written by Save.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errx.NewCacheIOError(path, err), "model: open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(errx.NewCacheIOError(path, err), "model: gzip reader")
	}
	defer gz.Close()
	tr := tar.NewReader(gz)

	var doc modelDoc
	var fiDoc fitInfoDoc
	logNull := make(map[string][]float64)
	var statePosterior map[string][][]float64

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errx.NewCacheIOError(path, err), "model: tar read")
		}
		switch hdr.Name {
		case entryModel:
			if err := json.NewDecoder(tr).Decode(&doc); err != nil {
				return nil, errors.Wrap(errx.NewCacheIOError(path, err), "model: decode model.json")
			}
		case entryFitInfo:
			if err := json.NewDecoder(tr).Decode(&fiDoc); err != nil {
				return nil, errors.Wrap(errx.NewCacheIOError(path, err), "model: decode fitinfo.json")
			}
		case entryLogNull:
			raw, err := io.ReadAll(tr)
			if err != nil {
				return nil, errors.Wrap(errx.NewCacheIOError(path, err), "model: read lognull.bin")
			}
			logNull = splitFloatBlob(raw, fiDoc.ChromOrder, fiDoc.BinCounts)
		case entryPosterior:
			raw, err := io.ReadAll(tr)
			if err != nil {
				return nil, errors.Wrap(errx.NewCacheIOError(path, err), "model: read posterior.bin")
			}
			k := 0
			if doc.Params != nil {
				k = doc.Params.Spec.K
			}
			statePosterior = splitPosteriorBlob(raw, fiDoc.ChromOrder, fiDoc.BinCounts, k)
		}
	}

	return &Artifact{
		Kind:           doc.Kind,
		Params:         doc.Params,
		FitInfo:        fiDoc.FitInfo,
		Identifier:     fiDoc.Identifier,
		LogNull:        logNull,
		StatePosterior: statePosterior,
	}, nil
}

func writeJSONEntry(tw *tar.Writer, name string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "model: marshal %s", name)
	}
	if err := tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(raw)), Mode: 0644}); err != nil {
		return errors.Wrapf(err, "model: tar header %s", name)
	}
	if _, err := tw.Write(raw); err != nil {
		return errors.Wrapf(err, "model: tar write %s", name)
	}
	return nil
}

// writeFloatBlob concatenates every chromosome's log-null vector, in
// chromOrder, as little-endian float32s.
func writeFloatBlob(tw *tar.Writer, name string, chromOrder []string, values map[string][]float64) error {
	buf := make([]byte, 0)
	for _, chrom := range chromOrder {
		for _, v := range values[chrom] {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], float32bits(float32(v)))
			buf = append(buf, b[:]...)
		}
	}
	if err := tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(buf)), Mode: 0644}); err != nil {
		return errors.Wrapf(err, "model: tar header %s", name)
	}
	if _, err := tw.Write(buf); err != nil {
		return errors.Wrapf(err, "model: tar write %s", name)
	}
	return nil
}

func splitFloatBlob(raw []byte, chromOrder []string, binCounts map[string]int) map[string][]float64 {
	out := make(map[string][]float64, len(chromOrder))
	off := 0
	for _, chrom := range chromOrder {
		n := binCounts[chrom]
		vals := make([]float64, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(raw[off : off+4])
			vals[i] = float64(float32frombits(bits))
			off += 4
		}
		out[chrom] = vals
	}
	return out
}

// writePosteriorBlob concatenates per-bin, per-state posteriors in
// chromOrder, row-major (bin-major, then state), as little-endian
// float32s.
func writePosteriorBlob(tw *tar.Writer, chromOrder []string, posterior map[string][][]float64) error {
	buf := make([]byte, 0)
	for _, chrom := range chromOrder {
		for _, row := range posterior[chrom] {
			for _, v := range row {
				var b [4]byte
				binary.LittleEndian.PutUint32(b[:], float32bits(float32(v)))
				buf = append(buf, b[:]...)
			}
		}
	}
	if err := tw.WriteHeader(&tar.Header{Name: entryPosterior, Size: int64(len(buf)), Mode: 0644}); err != nil {
		return errors.Wrapf(err, "model: tar header %s", entryPosterior)
	}
	if _, err := tw.Write(buf); err != nil {
		return errors.Wrapf(err, "model: tar write %s", entryPosterior)
	}
	return nil
}

func splitPosteriorBlob(raw []byte, chromOrder []string, binCounts map[string]int, k int) map[string][][]float64 {
	if k == 0 {
		return nil
	}
	out := make(map[string][][]float64, len(chromOrder))
	off := 0
	for _, chrom := range chromOrder {
		n := binCounts[chrom]
		rows := make([][]float64, n)
		for i := 0; i < n; i++ {
			row := make([]float64, k)
			for s := 0; s < k; s++ {
				bits := binary.LittleEndian.Uint32(raw[off : off+4])
				row[s] = float64(float32frombits(bits))
				off += 4
			}
			rows[i] = row
		}
		out[chrom] = rows
	}
	return out
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func float32bits(f float32) uint32     { return math.Float32bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
