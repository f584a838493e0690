package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/handiism/audio-normalizer/internal/model"
	"go.uber.org/zap"
)

// ErrNoAudioStream is returned when a file has no decodable audio.
var ErrNoAudioStream = errors.New("no audio stream")

// FFmpeg implements Service on top of the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	exec *Executor
	log  *zap.Logger
}

// NewFFmpeg resolves the binaries and returns a ready codec.
func NewFFmpeg(cfg ExecutorConfig, log *zap.Logger) (*FFmpeg, error) {
	if log == nil {
		log = zap.NewNop()
	}
	exec, err := NewExecutor(cfg, log)
	if err != nil {
		return nil, err
	}
	return &FFmpeg{exec: exec, log: log}, nil
}

type probeReport struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

// Decode probes path and measures its loudness.
func (f *FFmpeg) Decode(ctx context.Context, path string) (*model.AudioAsset, error) {
	raw, err := f.exec.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	var report probeReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	asset := &model.AudioAsset{SourcePath: path}
	for _, s := range report.Streams {
		if s.CodecType == "audio" {
			asset.Codec = s.CodecName
			break
		}
	}
	if asset.Codec == "" {
		return nil, ErrNoAudioStream
	}
	if secs, err := strconv.ParseFloat(report.Format.Duration, 64); err == nil {
		asset.Duration = time.Duration(secs * float64(time.Second))
	}

	stderr, err := f.exec.Run(ctx, MeasureArgs(path))
	if err != nil {
		return nil, err
	}
	stats, err := ParseVolumeDetect(stderr)
	if err != nil {
		return nil, err
	}
	asset.LoudnessDBFS = stats.MeanDBFS
	asset.PeakDBFS = stats.MaxDBFS

	f.log.Debug("measured loudness",
		zap.String("file", asset.Name()),
		zap.Float64("mean_dbfs", stats.MeanDBFS),
		zap.Float64("max_dbfs", stats.MaxDBFS),
		zap.Duration("duration", asset.Duration),
	)
	return asset, nil
}

// Encode applies gainDB and writes an MP3 to outPath.
func (f *FFmpeg) Encode(ctx context.Context, asset *model.AudioAsset, gainDB float64, spec model.NormalizationSpec, outPath string) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	_, err := f.exec.Run(ctx, EncodeArgs(asset.SourcePath, outPath, gainDB, spec.BitrateKbps))
	return err
}

// MeasureArgs returns the ffmpeg arguments that run volumedetect over the
// first audio stream without writing output.
func MeasureArgs(input string) []string {
	return []string{
		"-hide_banner", "-nostats",
		"-i", input,
		"-map", "0:a:0",
		"-af", "volumedetect",
		"-f", "null", "-",
	}
}

// EncodeArgs returns the ffmpeg arguments that apply gainDB and encode a
// constant bitrate MP3.
func EncodeArgs(input, output string, gainDB float64, bitrateKbps int) []string {
	return []string{
		"-hide_banner", "-nostats", "-y",
		"-i", input,
		"-map", "0:a:0",
		"-vn",
		"-map_metadata", "-1",
		"-af", VolumeFilter(gainDB),
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(bitrateKbps) + "k",
		"-f", "mp3",
		output,
	}
}

// VolumeFilter renders the volume filter for a gain in dB.
func VolumeFilter(gainDB float64) string {
	return "volume=" + strconv.FormatFloat(gainDB, 'f', 4, 64) + "dB"
}
