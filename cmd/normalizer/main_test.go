package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/audio-normalizer/internal/batch"
	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/handiism/audio-normalizer/internal/normalize"
	"github.com/handiism/audio-normalizer/internal/upload"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")

	out, err := execute(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	if _, err := execute(t, "config", "init", "--path", path); err == nil {
		t.Error("second init without --overwrite should fail")
	}
	if _, err := execute(t, "config", "init", "--path", path, "--overwrite"); err != nil {
		t.Errorf("init --overwrite error = %v", err)
	}
}

func TestConfigShow_AppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	out, err := execute(t, "--config", path, "--target", "-14", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "target_dbfs = -14") {
		t.Errorf("override not applied:\n%s", out)
	}
	if !strings.Contains(out, "bitrate_kbps = 320") {
		t.Errorf("default bitrate missing:\n%s", out)
	}
}

func TestInvalidOverrideRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	if _, err := execute(t, "--config", path, "--bitrate", "0", "config", "show"); err == nil {
		t.Error("bitrate 0 should be rejected")
	}
}

func TestSummaryTable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(out, bytes.Repeat([]byte{1}, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	outcome := &model.BatchOutcome{
		Status:    model.BatchCompleted,
		OutputDir: dir,
		Total:     2,
		Results: []model.NormalizationResult{
			{OutputPath: out, OutputName: "a.mp3", Success: true, SourceDBFS: -30, AppliedGainDB: 10, CoverAttached: true},
		},
		Failures: []model.FileFailure{
			{Index: 2, File: "b.mp3", Err: &normalize.DecodeError{Path: "b.mp3", Err: errors.New("bad")}},
		},
	}

	table := summaryTable(outcome)
	for _, want := range []string{"a.mp3", "-30.00", "+10.00", "2.0 kB", "yes", "b.mp3", "decode_failure", "1/2 file(s)"} {
		if !strings.Contains(table, want) {
			t.Errorf("summary missing %q:\n%s", want, table)
		}
	}
}

func TestFormatDB(t *testing.T) {
	if got := formatDB(math.Inf(-1)); got != "-inf" {
		t.Errorf("formatDB(-Inf) = %q", got)
	}
	if got := formatDB(-7.5); got != "-7.50" {
		t.Errorf("formatDB(-7.5) = %q", got)
	}
}

// stubServer answers like a normalizer server whose normalized file is
// served when normalized is true and missing otherwise.
func stubServer(t *testing.T, normalized bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /upload/", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		json.NewEncoder(w).Encode(upload.Response{Filename: "song.mp3", NormalizedFileURL: "/normalized/song.mp3"})
	})
	mux.HandleFunc("GET /normalized/song.mp3", func(w http.ResponseWriter, r *http.Request) {
		if !normalized {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(upload.ErrorResponse{Error: "not found", Kind: "not_found"})
			return
		}
		w.Write([]byte("normalized bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUploadCommand(t *testing.T) {
	tests := []struct {
		name       string
		normalized bool
		wantErr    string
	}{
		{"downloads the normalized file", true, ""},
		{"normalized file gone", false, "no longer on the server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := stubServer(t, tt.normalized)
			dir := t.TempDir()
			src := filepath.Join(dir, "song.mp3")
			if err := os.WriteFile(src, []byte("source"), 0644); err != nil {
				t.Fatal(err)
			}
			outDir := filepath.Join(dir, "out")
			if err := os.Mkdir(outDir, 0755); err != nil {
				t.Fatal(err)
			}

			out, err := execute(t, "--config", filepath.Join(dir, "missing.toml"), "upload", src, "--server", srv.URL, "--out", outDir)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("upload error = %v\n%s", err, out)
			}
			data, err := os.ReadFile(filepath.Join(outDir, "song.mp3"))
			if err != nil || string(data) != "normalized bytes" {
				t.Errorf("downloaded %q, err %v", data, err)
			}
		})
	}
}

func TestUploadCommand_ServerDown(t *testing.T) {
	srv := stubServer(t, true)
	url := srv.URL
	srv.Close()

	src := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(src, []byte("source"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "upload", src, "--server", url)
	if err == nil || !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %v, want not reachable", err)
	}
}

func TestEventPrinter(t *testing.T) {
	var out bytes.Buffer
	printer := newEventPrinter(&out, false)

	printer.Report(batch.ProgressEvent{Kind: batch.EventFileStarted, Level: batch.LevelVerbose, Message: "Normalizing 1/1: a.mp3"})
	printer.Report(batch.ProgressEvent{Kind: batch.EventFileCompleted, Level: batch.LevelVerbose, Message: "Normalized 1/1: a.mp3"})
	printer.Report(batch.ProgressEvent{Kind: batch.EventRunFinished, Level: batch.LevelSuccess, Message: "Volume normalization success."})

	got := out.String()
	if strings.Contains(got, "Normalizing 1/1") {
		t.Errorf("started event should be hidden without --verbose:\n%s", got)
	}
	if !strings.Contains(got, "  Normalized 1/1: a.mp3") || !strings.Contains(got, "✓ Volume normalization success.") {
		t.Errorf("output = %q", got)
	}
}
