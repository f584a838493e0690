package normalize

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/handiism/audio-normalizer/internal/testsupport"
)

func newTestEngine(fake *testsupport.FakeCodec) *Engine {
	return NewEngine(fake, Options{}, nil)
}

func TestEngine_GainCorrectness(t *testing.T) {
	tests := []struct {
		name     string
		loudness float64
		target   float64
		wantGain float64
	}{
		{"quiet source", -30, -20, 10},
		{"loud source", -12.5, -20, -7.5},
		{"already on target", -20, -20, 0},
		{"custom target", -23, -14, 9},
		{"zero target may clip", -3, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "song.mp3")
			testsupport.WriteAudio(t, in, tt.loudness)

			spec := model.DefaultSpec()
			spec.TargetDBFS = tt.target
			out := filepath.Join(dir, "normalized")

			result, err := newTestEngine(&testsupport.FakeCodec{}).Normalize(context.Background(), Request{
				InputPath: in, OutputDir: out, Spec: spec,
			})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}

			if result.AppliedGainDB != tt.wantGain {
				t.Errorf("AppliedGainDB = %v, want %v", result.AppliedGainDB, tt.wantGain)
			}
			if result.OutputPath != filepath.Join(out, "song.mp3") || result.OutputName != "song.mp3" {
				t.Errorf("output = %q (%q)", result.OutputPath, result.OutputName)
			}
			got, err := testsupport.ReadLoudness(result.OutputPath)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if math.Abs(got-tt.target) > 1e-9 {
				t.Errorf("output loudness = %v, want %v", got, tt.target)
			}
		})
	}
}

func TestEngine_Idempotence(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "song.mp3")
	testsupport.WriteAudio(t, in, -31.7)
	engine := newTestEngine(&testsupport.FakeCodec{})

	first, err := engine.Normalize(context.Background(), Request{
		InputPath: in, OutputDir: filepath.Join(dir, "pass1"), Spec: model.DefaultSpec(),
	})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	second, err := engine.Normalize(context.Background(), Request{
		InputPath: first.OutputPath, OutputDir: filepath.Join(dir, "pass2"), Spec: model.DefaultSpec(),
	})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if math.Abs(second.AppliedGainDB) > 1e-9 {
		t.Errorf("second pass gain = %v, want ~0", second.AppliedGainDB)
	}
}

func TestEngine_CoverRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "covered.mp3")
	testsupport.WriteAudio(t, in, -25)
	picture := bytes.Repeat([]byte{0xca, 0xfe}, 500)
	testsupport.AddCover(t, in, picture)
	coverFile := filepath.Join(dir, "normalized", "cover.jpg")

	result, err := newTestEngine(&testsupport.FakeCodec{}).Normalize(context.Background(), Request{
		InputPath: in, OutputDir: filepath.Join(dir, "normalized"), Spec: model.DefaultSpec(), CoverFile: coverFile,
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if !result.CoverAttached {
		t.Error("CoverAttached should be true")
	}
	if got := testsupport.ReadCover(t, result.OutputPath); !bytes.Equal(got, picture) {
		t.Error("output cover should equal the source cover byte for byte")
	}
	if data, err := os.ReadFile(coverFile); err != nil || !bytes.Equal(data, picture) {
		t.Errorf("cover file = %d bytes, err %v", len(data), err)
	}
	if loud, _ := testsupport.ReadLoudness(result.OutputPath); loud != -20 {
		t.Errorf("output loudness = %v after tagging, want -20", loud)
	}
}

func TestEngine_NoCoverIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bare.mp3")
	testsupport.WriteAudio(t, in, -20)

	result, err := newTestEngine(&testsupport.FakeCodec{}).Normalize(context.Background(), Request{
		InputPath: in, OutputDir: filepath.Join(dir, "normalized"), Spec: model.DefaultSpec(),
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if result.CoverAttached {
		t.Error("CoverAttached should be false")
	}
	if result.CoverSkipReason == "" {
		t.Error("CoverSkipReason should explain the missing cover")
	}
	if testsupport.ReadCover(t, result.OutputPath) != nil {
		t.Error("output should carry no cover")
	}
}

func TestEngine_DecodeFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "corrupt.mp3")
	if err := os.WriteFile(in, []byte("not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "normalized")

	_, err := newTestEngine(&testsupport.FakeCodec{}).Normalize(context.Background(), Request{
		InputPath: in, OutputDir: out, Spec: model.DefaultSpec(),
	})

	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Normalize() error = %v, want ErrDecode", err)
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Path != in {
		t.Errorf("error = %#v, want *DecodeError for %s", err, in)
	}
	if !errors.Is(err, testsupport.ErrUnreadable) {
		t.Error("DecodeError should wrap the codec error")
	}
	if _, statErr := os.Stat(filepath.Join(out, "corrupt.mp3")); !os.IsNotExist(statErr) {
		t.Error("no output should be written for undecodable input")
	}
	if Kind(err) != "decode_failure" {
		t.Errorf("Kind() = %q", Kind(err))
	}
}

func TestEngine_EncodeFailureRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "song.mp3")
	testsupport.WriteAudio(t, in, -30)
	out := filepath.Join(dir, "normalized")
	fake := &testsupport.FakeCodec{FailEncode: map[string]bool{"song.mp3": true}}

	_, err := newTestEngine(fake).Normalize(context.Background(), Request{
		InputPath: in, OutputDir: out, Spec: model.DefaultSpec(),
	})

	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Normalize() error = %v, want ErrEncode", err)
	}
	if Kind(err) != "encode_failure" {
		t.Errorf("Kind() = %q", Kind(err))
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("output dir should be empty after a failed encode, got %v", entries)
	}
}

func TestEngine_OverwritesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "song.mp3")
	testsupport.WriteAudio(t, in, -26)
	out := filepath.Join(dir, "normalized")
	if err := os.MkdirAll(out, 0755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteAudio(t, filepath.Join(out, "song.mp3"), -99)

	result, err := newTestEngine(&testsupport.FakeCodec{}).Normalize(context.Background(), Request{
		InputPath: in, OutputDir: out, Spec: model.DefaultSpec(),
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if loud, _ := testsupport.ReadLoudness(result.OutputPath); loud != -20 {
		t.Errorf("output loudness = %v, want the new -20 output", loud)
	}
}

func TestEngine_SilentInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "silence.mp3")
	testsupport.WriteAudio(t, in, math.Inf(-1))

	result, err := newTestEngine(&testsupport.FakeCodec{}).Normalize(context.Background(), Request{
		InputPath: in, OutputDir: filepath.Join(dir, "normalized"), Spec: model.DefaultSpec(),
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if result.AppliedGainDB != 0 {
		t.Errorf("AppliedGainDB = %v, want 0 for silence", result.AppliedGainDB)
	}
}

func TestEngine_RejectsBadRequests(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "song.mp3")
	testsupport.WriteAudio(t, in, -20)
	engine := newTestEngine(&testsupport.FakeCodec{})

	badSpec := model.DefaultSpec()
	badSpec.TargetDBFS = math.NaN()
	_, err := engine.Normalize(context.Background(), Request{InputPath: in, OutputDir: dir + "/out", Spec: badSpec})
	if !errors.Is(err, model.ErrInvalidSpec) {
		t.Errorf("NaN target error = %v, want ErrInvalidSpec", err)
	}

	_, err = engine.Normalize(context.Background(), Request{InputPath: in, OutputDir: dir, Spec: model.DefaultSpec()})
	if !errors.Is(err, ErrOutputIsInput) {
		t.Errorf("same dir error = %v, want ErrOutputIsInput", err)
	}
}
