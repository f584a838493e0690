package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/pelletier/go-toml/v2"
)

// Paths holds the directories used by the upload service.
type Paths struct {
	UploadsDir    string `toml:"uploads_dir"`
	NormalizedDir string `toml:"normalized_dir"`
}

// Normalization holds the default normalization target and cover art
// handling.
type Normalization struct {
	TargetDBFS  float64 `toml:"target_dbfs"`
	BitrateKbps int     `toml:"bitrate_kbps"`

	// CoverMaxSize shrinks embedded cover art to fit a square of this many
	// pixels. Zero leaves the picture untouched.
	CoverMaxSize int  `toml:"cover_max_size"`
	CoverToJPEG  bool `toml:"cover_to_jpeg"`
}

// Codec holds the external encoder binaries.
type Codec struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Server holds HTTP upload service settings.
type Server struct {
	Bind string `toml:"bind"`

	// RequestTimeout bounds an upload request in seconds. Zero disables it.
	RequestTimeout int `toml:"request_timeout"`

	// MaxUploadMB caps the accepted upload size. Zero means unlimited.
	MaxUploadMB    int      `toml:"max_upload_mb"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Batch holds directory batch settings.
type Batch struct {
	Extensions      []string `toml:"extensions"`
	OutputSubdir    string   `toml:"output_subdir"`
	ContinueOnError bool     `toml:"continue_on_error"`

	// CoverFile is written into the output directory with the cover of the
	// file being processed. Empty disables it.
	CoverFile string `toml:"cover_file"`

	// Playlist is "", "m3u", "pls", "wpl" or "zpl".
	Playlist string `toml:"playlist"`
}

// Logging holds log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console, json
}

// Settings holds all configuration options.
type Settings struct {
	Paths         Paths         `toml:"paths"`
	Normalization Normalization `toml:"normalization"`
	Codec         Codec         `toml:"codec"`
	Server        Server        `toml:"server"`
	Batch         Batch         `toml:"batch"`
	Logging       Logging       `toml:"logging"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Paths: Paths{
			UploadsDir:    "uploads",
			NormalizedDir: "normalized",
		},
		Normalization: Normalization{
			TargetDBFS:  model.DefaultTargetDBFS,
			BitrateKbps: model.DefaultBitrateKbps,
		},
		Codec: Codec{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Server: Server{
			Bind:           "0.0.0.0:8000",
			AllowedOrigins: []string{"*"},
		},
		Batch: Batch{
			Extensions:   []string{".mp3"},
			OutputSubdir: "normalized",
			CoverFile:    "cover.jpg",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns ~/.config/audio-normalizer/config.toml.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/audio-normalizer/config.toml")
}

// Load reads settings from a TOML file.
//
// An empty path resolves to the user config file, then ./normalizer.toml.
// A missing file yields the defaults. The returned string is the resolved
// path, whether or not it existed.
func Load(path string) (*Settings, string, error) {
	settings := DefaultSettings()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(settings); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}

	settings.normalize()

	if err := settings.Validate(); err != nil {
		return nil, "", err
	}

	return settings, resolved, nil
}

// Save writes settings to a TOML file.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Spec returns the default normalization spec described by the settings.
func (s *Settings) Spec() model.NormalizationSpec {
	return model.NormalizationSpec{
		TargetDBFS:  s.Normalization.TargetDBFS,
		Format:      model.FormatMP3,
		BitrateKbps: s.Normalization.BitrateKbps,
	}
}

func resolvePath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, true, nil
	}

	projectPath, err := filepath.Abs("normalizer.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return userPath, false, nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return value, nil
	}
	if strings.HasPrefix(value, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if value == "~" {
			value = home
		} else if len(value) > 1 && (value[1] == '/' || value[1] == '\\') {
			value = filepath.Join(home, value[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(value))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}
