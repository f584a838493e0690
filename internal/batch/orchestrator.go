package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/audio-normalizer/internal/audio"
	"github.com/handiism/audio-normalizer/internal/config"
	ioutils "github.com/handiism/audio-normalizer/internal/io"
	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/handiism/audio-normalizer/internal/normalize"
	"go.uber.org/zap"
)

// ErrNotDirectory is returned when the batch target is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Options controls how a directory is scanned and processed.
type Options struct {
	// OutputSubdir is created inside the scanned directory.
	OutputSubdir string

	// Extensions lists the file name suffixes that are candidates.
	// Matching is case-sensitive.
	Extensions []string

	// ContinueOnError records failed files and moves on instead of
	// stopping the run.
	ContinueOnError bool

	// CoverFile is written into the output directory with the cover of
	// the file being processed. Empty disables it.
	CoverFile string

	// Playlist is "", "m3u", "pls", "wpl" or "zpl".
	Playlist string
}

// DefaultOptions matches the default settings.
func DefaultOptions() Options {
	return OptionsFromSettings(config.DefaultSettings())
}

// OptionsFromSettings converts settings to Options.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		OutputSubdir:    s.Batch.OutputSubdir,
		Extensions:      append([]string(nil), s.Batch.Extensions...),
		ContinueOnError: s.Batch.ContinueOnError,
		CoverFile:       s.Batch.CoverFile,
		Playlist:        s.Batch.Playlist,
	}
}

// Orchestrator normalizes every candidate file of a directory, one after
// another.
type Orchestrator struct {
	engine *normalize.Engine
	opts   Options
	log    *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(engine *normalize.Engine, opts Options, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.OutputSubdir == "" {
		opts.OutputSubdir = "normalized"
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".mp3"}
	}
	return &Orchestrator{engine: engine, opts: opts, log: log}
}

// state is the progress of one run. index only moves forward.
type state struct {
	files  []string
	index  int
	status model.BatchStatus
}

// Run normalizes the candidate files of dir into dir/<OutputSubdir>.
//
// The output directory is created before the scan, so it exists even when
// no candidates are found. Files are processed in directory listing order.
// token is checked before each file; once it is set the run stops and the
// outcome is cancelled, keeping every file already written. ctx is for
// process shutdown and aborts in-flight codec work.
//
// With ContinueOnError unset, the first failing file ends the run with a
// failed outcome and its error is returned alongside the outcome.
func (o *Orchestrator) Run(ctx context.Context, dir string, spec model.NormalizationSpec, token *CancelToken, reporter Reporter) (*model.BatchOutcome, error) {
	if reporter == nil {
		reporter = NoopReporter{}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, absDir)
	}

	outputDir := filepath.Join(absDir, o.opts.OutputSubdir)
	if err := ioutils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock, err := acquireDirLock(absDir)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	log := o.log.With(zap.String("dir", absDir))

	files, err := o.candidates(absDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", absDir, err)
	}

	st := &state{files: files, status: model.BatchCompleted}
	outcome := &model.BatchOutcome{
		Directory: absDir,
		OutputDir: outputDir,
		Total:     len(files),
	}

	if len(files) == 0 {
		st.status = model.BatchEmpty
		return o.finish(outcome, st, reporter, log), nil
	}

	reporter.Report(ProgressEvent{
		Kind:    EventRunStarted,
		Level:   LevelInfo,
		Total:   len(files),
		Message: fmt.Sprintf("Found %d audio file(s) in %s", len(files), absDir),
	})

	coverFile := ""
	if o.opts.CoverFile != "" {
		coverFile = filepath.Join(outputDir, o.opts.CoverFile)
	}

	var runErr error
	for ; st.index < len(st.files); st.index++ {
		if token.Cancelled() {
			st.status = model.BatchCancelled
			break
		}
		if err := ctx.Err(); err != nil {
			st.status = model.BatchCancelled
			runErr = err
			break
		}

		name := st.files[st.index]
		position := st.index + 1
		reporter.Report(ProgressEvent{
			Kind:    EventFileStarted,
			Level:   LevelVerbose,
			Index:   position,
			Total:   len(files),
			File:    name,
			Message: fmt.Sprintf("Normalizing %d/%d: %s", position, len(files), name),
		})

		result, err := o.engine.Normalize(ctx, normalize.Request{
			InputPath: filepath.Join(absDir, name),
			OutputDir: outputDir,
			Spec:      spec,
			CoverFile: coverFile,
		})
		outcome.Processed++

		if err != nil {
			reporter.Report(ProgressEvent{
				Kind:    EventFileFailed,
				Level:   LevelError,
				Index:   position,
				Total:   len(files),
				File:    name,
				Err:     err,
				Message: fmt.Sprintf("Failed %s: %v", name, err),
			})
			if ctx.Err() != nil {
				st.status = model.BatchCancelled
				runErr = ctx.Err()
				break
			}
			if !o.opts.ContinueOnError {
				st.status = model.BatchFailed
				outcome.Err = err
				runErr = err
				break
			}
			outcome.Failures = append(outcome.Failures, model.FileFailure{Index: position, File: name, Err: err})
			continue
		}

		outcome.Results = append(outcome.Results, *result)
		reporter.Report(ProgressEvent{
			Kind:    EventFileCompleted,
			Level:   LevelVerbose,
			Index:   position,
			Total:   len(files),
			File:    name,
			Result:  result,
			Message: fmt.Sprintf("Normalized %d/%d: %s (%+.2f dB)", position, len(files), name, result.AppliedGainDB),
		})
	}

	// A stop requested during the last file still ends the run as cancelled.
	if st.status == model.BatchCompleted && token.Cancelled() {
		st.status = model.BatchCancelled
	}

	o.writePlaylist(outcome, log)
	return o.finish(outcome, st, reporter, log), runErr
}

// candidates lists the regular files of dir whose names end with one of
// the configured extensions, in directory listing order. Symlinks count
// when they resolve to a regular file.
func (o *Orchestrator) candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !isRegular(dir, entry) {
			continue
		}
		for _, ext := range o.opts.Extensions {
			if strings.HasSuffix(entry.Name(), ext) {
				files = append(files, entry.Name())
				break
			}
		}
	}
	return files, nil
}

func isRegular(dir string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		return err == nil && info.Mode().IsRegular()
	}
	return entry.Type().IsRegular()
}

func (o *Orchestrator) writePlaylist(outcome *model.BatchOutcome, log *zap.Logger) {
	if o.opts.Playlist == "" || outcome.Succeeded() == 0 {
		return
	}
	format, err := audio.ParsePlaylistFormat(o.opts.Playlist)
	if err != nil {
		log.Warn("skipping playlist", zap.Error(err))
		return
	}

	title := filepath.Base(outcome.Directory)
	content := audio.NewPlaylistCreator(format, true).CreatePlaylist(title, outcome.Results)
	path := filepath.Join(outcome.OutputDir, title+format.Extension())
	if err := ioutils.WriteFile(path, []byte(content)); err != nil {
		log.Warn("could not write playlist", zap.String("path", path), zap.Error(err))
		return
	}
	log.Info("wrote playlist", zap.String("path", path))
}

func (o *Orchestrator) finish(outcome *model.BatchOutcome, st *state, reporter Reporter, log *zap.Logger) *model.BatchOutcome {
	outcome.Status = st.status

	level := LevelSuccess
	switch st.status {
	case model.BatchCancelled, model.BatchEmpty:
		level = LevelWarning
	case model.BatchFailed:
		level = LevelError
	}

	log.Info("batch finished",
		zap.Stringer("status", st.status),
		zap.Int("total", outcome.Total),
		zap.Int("processed", outcome.Processed),
		zap.Int("failed", len(outcome.Failures)),
	)

	reporter.Report(ProgressEvent{
		Kind:    EventRunFinished,
		Level:   level,
		Index:   outcome.Processed,
		Total:   outcome.Total,
		Status:  st.status,
		Err:     outcome.Err,
		Message: outcome.Message(),
	})
	return outcome
}
