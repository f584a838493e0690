package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

func (s *Settings) normalize() {
	s.Codec.FFmpeg = strings.TrimSpace(s.Codec.FFmpeg)
	s.Codec.FFprobe = strings.TrimSpace(s.Codec.FFprobe)
	if s.Codec.FFmpeg == "" {
		s.Codec.FFmpeg = "ffmpeg"
	}
	if s.Codec.FFprobe == "" {
		s.Codec.FFprobe = "ffprobe"
	}

	s.Server.Bind = strings.TrimSpace(s.Server.Bind)

	exts := make([]string, 0, len(s.Batch.Extensions))
	for _, ext := range s.Batch.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	s.Batch.Extensions = exts

	s.Batch.Playlist = strings.ToLower(strings.TrimSpace(s.Batch.Playlist))
	s.Logging.Level = strings.ToLower(strings.TrimSpace(s.Logging.Level))
	s.Logging.Format = strings.ToLower(strings.TrimSpace(s.Logging.Format))
}

// Validate checks the settings for values that cannot be used.
func (s *Settings) Validate() error {
	var problems []string

	if err := s.Spec().Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if s.Normalization.CoverMaxSize < 0 {
		problems = append(problems, "normalization.cover_max_size must not be negative")
	}
	if s.Paths.UploadsDir == "" {
		problems = append(problems, "paths.uploads_dir must be set")
	}
	if s.Paths.NormalizedDir == "" {
		problems = append(problems, "paths.normalized_dir must be set")
	}
	if s.Paths.UploadsDir != "" && filepath.Clean(s.Paths.UploadsDir) == filepath.Clean(s.Paths.NormalizedDir) {
		problems = append(problems, "paths.uploads_dir and paths.normalized_dir must differ")
	}
	if s.Server.RequestTimeout < 0 {
		problems = append(problems, "server.request_timeout must not be negative")
	}
	if s.Server.MaxUploadMB < 0 {
		problems = append(problems, "server.max_upload_mb must not be negative")
	}
	if len(s.Batch.Extensions) == 0 {
		problems = append(problems, "batch.extensions must list at least one extension")
	}
	if s.Batch.OutputSubdir == "" || strings.ContainsAny(s.Batch.OutputSubdir, `/\`) || s.Batch.OutputSubdir == "." || s.Batch.OutputSubdir == ".." {
		problems = append(problems, "batch.output_subdir must be a plain directory name")
	}
	if strings.ContainsAny(s.Batch.CoverFile, `/\`) {
		problems = append(problems, "batch.cover_file must be a plain file name")
	}
	switch s.Batch.Playlist {
	case "", "m3u", "pls", "wpl", "zpl":
	default:
		problems = append(problems, fmt.Sprintf("batch.playlist %q is not one of m3u, pls, wpl, zpl", s.Batch.Playlist))
	}
	switch s.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", s.Logging.Level))
	}
	switch s.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", s.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
