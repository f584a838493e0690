package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	ioutils "github.com/handiism/audio-normalizer/internal/io"
	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/handiism/audio-normalizer/internal/normalize"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a normalized file does not exist.
var ErrNotFound = errors.New("file not found")

// Response is the body of a successful upload.
type Response struct {
	Filename          string `json:"filename"`
	NormalizedFileURL string `json:"normalized_file_url"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Service stores uploads, normalizes them and looks up the results.
type Service struct {
	engine        *normalize.Engine
	spec          model.NormalizationSpec
	uploadsDir    string
	normalizedDir string
	log           *zap.Logger
}

// NewService creates the uploads and normalized directories if needed.
func NewService(engine *normalize.Engine, spec model.NormalizationSpec, uploadsDir, normalizedDir string, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	for _, dir := range []string{uploadsDir, normalizedDir} {
		if err := ioutils.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Service{
		engine:        engine,
		spec:          spec,
		uploadsDir:    uploadsDir,
		normalizedDir: normalizedDir,
		log:           log,
	}, nil
}

// Receive writes r verbatim to the uploads directory under name and
// returns the stored path. Concurrent uploads of one name race; the last
// one to finish wins.
func (s *Service) Receive(ctx context.Context, name string, r io.Reader) (string, error) {
	name, err := ioutils.ValidateFileName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.uploadsDir, name)
	n, err := ioutils.WriteStream(ctx, path, r)
	if err != nil {
		return "", fmt.Errorf("store upload %s: %w", name, err)
	}
	s.log.Debug("stored upload", zap.String("file", name), zap.Int64("bytes", n))
	return path, nil
}

// Handle stores an upload and normalizes it with the service's spec,
// blocking until the output is written.
func (s *Service) Handle(ctx context.Context, name string, r io.Reader) (*Response, error) {
	stored, err := s.Receive(ctx, name, r)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Normalize(ctx, normalize.Request{
		InputPath: stored,
		OutputDir: s.normalizedDir,
		Spec:      s.spec,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Filename:          filepath.Base(stored),
		NormalizedFileURL: NormalizedURL(result.OutputName),
	}, nil
}

// Open returns the normalized file called name. The caller closes it.
func (s *Service) Open(name string) (*os.File, os.FileInfo, error) {
	name, err := ioutils.ValidateFileName(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	f, err := os.Open(filepath.Join(s.normalizedDir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, info, nil
}

// NormalizedURL is the retrieval path for a normalized file name.
func NormalizedURL(name string) string {
	return "/normalized/" + url.PathEscape(name)
}
