package normalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/handiism/audio-normalizer/internal/audio"
	"github.com/handiism/audio-normalizer/internal/codec"
	ioutils "github.com/handiism/audio-normalizer/internal/io"
	"github.com/handiism/audio-normalizer/internal/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options controls cover art handling.
type Options struct {
	// CoverMaxSize shrinks covers to fit this many pixels. Zero keeps them.
	CoverMaxSize int

	// CoverToJPEG re-encodes non-JPEG covers.
	CoverToJPEG bool
}

// Request describes one file to normalize.
type Request struct {
	InputPath string

	// OutputDir receives the output under the input's base name. It is
	// created if missing.
	OutputDir string

	Spec model.NormalizationSpec

	// CoverFile, when set, is overwritten with the cover art of this input.
	CoverFile string
}

// Engine measures, re-gains and re-encodes single files.
type Engine struct {
	codec  codec.Service
	tagger *audio.Tagger
	images *ioutils.ImageService
	opts   Options
	log    *zap.Logger
}

// NewEngine creates an Engine backed by the given codec.
func NewEngine(c codec.Service, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		codec:  c,
		tagger: audio.NewTagger(),
		images: ioutils.NewImageService(),
		opts:   opts,
		log:    log,
	}
}

// Normalize brings the input to the spec's target loudness and writes it
// to OutputDir with the same base name, carrying over its cover art.
//
// The gain is target minus measured loudness and is never clamped. A
// silent input (loudness of negative infinity) is encoded with 0 dB gain.
//
// Errors are *DecodeError when the input cannot be read and *EncodeError
// when the output cannot be written; in both cases no output file remains.
// A missing cover is not an error.
func (e *Engine) Normalize(ctx context.Context, req Request) (*model.NormalizationResult, error) {
	if err := req.Spec.Validate(); err != nil {
		return nil, err
	}

	name := filepath.Base(req.InputPath)
	outPath := filepath.Join(req.OutputDir, name)
	if same, _ := samePath(req.InputPath, outPath); same {
		return nil, fmt.Errorf("%w: %s", ErrOutputIsInput, req.InputPath)
	}

	log := e.log.With(zap.String("file", name))

	asset, err := e.codec.Decode(ctx, req.InputPath)
	if err != nil {
		return nil, &DecodeError{Path: req.InputPath, Err: err}
	}

	result := &model.NormalizationResult{
		InputPath:  req.InputPath,
		OutputPath: outPath,
		OutputName: name,
		SourceDBFS: asset.LoudnessDBFS,
		Duration:   asset.Duration,
	}

	gain := req.Spec.GainFor(asset.LoudnessDBFS)
	if asset.IsSilent() {
		log.Warn("input is digital silence, encoding without gain")
		gain = 0
	}
	result.AppliedGainDB = gain

	if err := ioutils.EnsureDir(req.OutputDir); err != nil {
		return nil, &EncodeError{Path: outPath, Err: err}
	}

	asset.Cover, result.CoverSkipReason = e.loadCover(ctx, req.InputPath, log)
	if asset.Cover != nil && req.CoverFile != "" {
		if err := ioutils.WriteFile(req.CoverFile, asset.Cover.Data); err != nil {
			log.Warn("could not write cover file", zap.String("path", req.CoverFile), zap.Error(err))
		}
	}

	tmp := ioutils.TempPath(req.OutputDir)
	if err := e.write(ctx, asset, gain, req.Spec, tmp, outPath); err != nil {
		return nil, &EncodeError{Path: outPath, Err: multierr.Append(err, ioutils.RemoveIfExists(tmp))}
	}

	result.Success = true
	result.CoverAttached = asset.Cover != nil

	log.Info("normalized",
		zap.Float64("source_dbfs", asset.LoudnessDBFS),
		zap.Float64("gain_db", gain),
		zap.Float64("target_dbfs", req.Spec.TargetDBFS),
		zap.Bool("cover", result.CoverAttached),
	)
	return result, nil
}

// write encodes into tmp, attaches the cover and renames tmp over outPath.
func (e *Engine) write(ctx context.Context, asset *model.AudioAsset, gain float64, spec model.NormalizationSpec, tmp, outPath string) error {
	if err := e.codec.Encode(ctx, asset, gain, spec, tmp); err != nil {
		return err
	}
	if asset.Cover != nil {
		if err := e.tagger.EmbedCover(tmp, asset.Cover); err != nil {
			return fmt.Errorf("attach cover: %w", err)
		}
	}
	return os.Rename(tmp, outPath)
}

// loadCover returns the prepared cover of path, or nil and the reason it
// is missing.
func (e *Engine) loadCover(ctx context.Context, path string, log *zap.Logger) (*model.CoverArt, string) {
	cover, err := e.tagger.ExtractCover(path)
	if err != nil {
		if errors.Is(err, audio.ErrNoCoverArt) {
			log.Info("no cover art", zap.String("reason", err.Error()))
		} else {
			log.Warn("could not read cover art", zap.Error(err))
		}
		return nil, err.Error()
	}

	prepared, err := e.images.PrepareCover(ctx, cover, e.opts.CoverMaxSize, e.opts.CoverToJPEG)
	if err != nil {
		log.Warn("could not process cover art, embedding original", zap.Error(err))
		return cover, ""
	}
	return prepared, ""
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
