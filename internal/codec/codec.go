package codec

import (
	"context"

	"github.com/handiism/audio-normalizer/internal/model"
)

// Service is the audio codec capability the normalization engine relies on.
type Service interface {
	// Decode reads the file at path and measures its loudness.
	Decode(ctx context.Context, path string) (*model.AudioAsset, error)

	// Encode applies gainDB to the asset's audio and writes it to outPath
	// in the spec's format and bitrate, replacing any existing file.
	Encode(ctx context.Context, asset *model.AudioAsset, gainDB float64, spec model.NormalizationSpec, outPath string) error
}
