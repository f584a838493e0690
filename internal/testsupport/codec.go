// Package testsupport provides fakes and fixtures shared by package tests.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bogem/id3v2"
	"github.com/handiism/audio-normalizer/internal/model"
)

// FakeDuration is the duration FakeCodec reports for every file.
const FakeDuration = 3 * time.Minute

var headerRe = regexp.MustCompile(`FAKEAUDIO loudness=(\S+)`)

// ErrUnreadable is returned by FakeCodec.Decode for files without a fake
// audio header.
var ErrUnreadable = errors.New("invalid data found when processing input")

// FakeCodec is a deterministic stand-in for the ffmpeg codec. Its "audio"
// files carry their loudness in a text header, and encoding rewrites that
// header with the gain applied, so loudness arithmetic is exact.
//
// Files may be prefixed by an ID3 tag; the header is found anywhere in the
// file.
type FakeCodec struct {
	// FailEncode names input files (base names) whose encode fails after
	// writing a partial output.
	FailEncode map[string]bool

	// BeforeEncode runs before each encode with the input base name.
	BeforeEncode func(name string)

	mu      sync.Mutex
	decoded []string
	encoded []string
}

// Decode implements codec.Service.
func (f *FakeCodec) Decode(ctx context.Context, path string) (*model.AudioAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loudness, err := ReadLoudness(path)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.decoded = append(f.decoded, filepath.Base(path))
	f.mu.Unlock()

	return &model.AudioAsset{
		SourcePath:   path,
		LoudnessDBFS: loudness,
		PeakDBFS:     loudness + 10,
		Duration:     FakeDuration,
		Codec:        "fake",
	}, nil
}

// Encode implements codec.Service.
func (f *FakeCodec) Encode(ctx context.Context, asset *model.AudioAsset, gainDB float64, spec model.NormalizationSpec, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := filepath.Base(asset.SourcePath)
	if f.BeforeEncode != nil {
		f.BeforeEncode(name)
	}

	f.mu.Lock()
	f.encoded = append(f.encoded, name)
	f.mu.Unlock()

	if f.FailEncode[name] {
		_ = os.WriteFile(outPath, []byte("FAKEAUDIO partial"), 0644)
		return fmt.Errorf("encode %s: disk full", name)
	}

	body := fmt.Sprintf("FAKEAUDIO loudness=%s bitrate=%d\n", formatLoudness(asset.LoudnessDBFS+gainDB), spec.BitrateKbps)
	return os.WriteFile(outPath, []byte(body), 0644)
}

// Decoded returns the base names passed to Decode, in call order.
func (f *FakeCodec) Decoded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.decoded...)
}

// Encoded returns the input base names passed to Encode, in call order.
func (f *FakeCodec) Encoded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.encoded...)
}

// ReadLoudness returns the loudness recorded in a fake audio file.
func ReadLoudness(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	m := headerRe.FindSubmatch(data)
	if m == nil {
		return 0, ErrUnreadable
	}
	return strconv.ParseFloat(string(m[1]), 64)
}

func formatLoudness(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteAudio writes a fake audio file measuring loudness dBFS.
func WriteAudio(t testing.TB, path string, loudness float64) {
	t.Helper()
	body := fmt.Sprintf("FAKEAUDIO loudness=%s\n", formatLoudness(loudness))
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write fake audio: %v", err)
	}
}

// AddCover tags path with a front cover picture.
func AddCover(t testing.TB, path string, picture []byte) {
	t.Helper()
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open tag: %v", err)
	}
	defer tag.Close()
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     picture,
	})
	if err := tag.Save(); err != nil {
		t.Fatalf("save tag: %v", err)
	}
}

// ReadCover returns the front cover embedded in path, nil if none.
func ReadCover(t testing.TB, path string) []byte {
	t.Helper()
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open tag: %v", err)
	}
	defer tag.Close()
	for _, f := range tag.GetFrames(tag.CommonID("Attached picture")) {
		if pic, ok := f.(id3v2.PictureFrame); ok {
			return pic.Picture
		}
	}
	return nil
}
