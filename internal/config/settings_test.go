package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	settings, resolved, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if settings.Normalization.TargetDBFS != -20.0 {
		t.Errorf("TargetDBFS = %v, want -20", settings.Normalization.TargetDBFS)
	}
	if settings.Normalization.BitrateKbps != 320 {
		t.Errorf("BitrateKbps = %d, want 320", settings.Normalization.BitrateKbps)
	}
	if got := settings.Batch.Extensions; len(got) != 1 || got[0] != ".mp3" {
		t.Errorf("Extensions = %v, want [.mp3]", got)
	}
}

func TestLoad_OverridesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[normalization]
target_dbfs = -14.5

[codec]
ffmpeg = "  /opt/ffmpeg/bin/ffmpeg  "
ffprobe = ""

[batch]
extensions = ["mp3", " .MP3 ", ""]
playlist = "M3U"
continue_on_error = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.Normalization.TargetDBFS != -14.5 {
		t.Errorf("TargetDBFS = %v, want -14.5", settings.Normalization.TargetDBFS)
	}
	if settings.Normalization.BitrateKbps != 320 {
		t.Errorf("BitrateKbps should keep its default, got %d", settings.Normalization.BitrateKbps)
	}
	if settings.Codec.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpeg = %q", settings.Codec.FFmpeg)
	}
	if settings.Codec.FFprobe != "ffprobe" {
		t.Errorf("FFprobe = %q, want ffprobe", settings.Codec.FFprobe)
	}
	want := []string{".mp3", ".MP3"}
	if len(settings.Batch.Extensions) != len(want) {
		t.Fatalf("Extensions = %v, want %v", settings.Batch.Extensions, want)
	}
	for i := range want {
		if settings.Batch.Extensions[i] != want[i] {
			t.Errorf("Extensions[%d] = %q, want %q", i, settings.Batch.Extensions[i], want[i])
		}
	}
	if settings.Batch.Playlist != "m3u" {
		t.Errorf("Playlist = %q, want m3u", settings.Batch.Playlist)
	}
	if !settings.Batch.ContinueOnError {
		t.Error("ContinueOnError should be true")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{"bitrate", "[normalization]\nbitrate_kbps = 0\n", "bitrate"},
		{"playlist", "[batch]\nplaylist = \"xspf\"\n", "batch.playlist"},
		{"subdir", "[batch]\noutput_subdir = \"a/b\"\n", "batch.output_subdir"},
		{"subdir is the input", "[batch]\noutput_subdir = \".\"\n", "batch.output_subdir"},
		{"shared upload dir", "[paths]\nuploads_dir = \"/srv/audio\"\nnormalized_dir = \"/srv/audio/\"\n", "must differ"},
		{"log level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"timeout", "[server]\nrequest_timeout = -1\n", "server.request_timeout"},
		{"syntax", "[batch\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	settings := DefaultSettings()
	settings.Normalization.TargetDBFS = -18
	settings.Server.AllowedOrigins = []string{"http://localhost:3000"}

	if err := settings.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Normalization.TargetDBFS != -18 {
		t.Errorf("TargetDBFS = %v, want -18", loaded.Normalization.TargetDBFS)
	}
	if len(loaded.Server.AllowedOrigins) != 1 || loaded.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", loaded.Server.AllowedOrigins)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}
	if err := CreateSample(path); err == nil {
		t.Error("CreateSample() should refuse to overwrite an existing file")
	}

	settings, _, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if settings.Spec().TargetDBFS != -20 {
		t.Errorf("sample target = %v, want -20", settings.Spec().TargetDBFS)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandPath("~/music")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	if got != filepath.Join(home, "music") {
		t.Errorf("ExpandPath(~/music) = %q", got)
	}

	if got, _ := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q, want empty", got)
	}
}
