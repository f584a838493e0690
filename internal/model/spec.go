package model

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultTargetDBFS is the loudness every file is brought to unless
	// configured otherwise.
	DefaultTargetDBFS = -20.0

	// DefaultBitrateKbps is the constant bitrate of the encoded output.
	DefaultBitrateKbps = 320

	// FormatMP3 is the only supported output container.
	FormatMP3 = "mp3"
)

// ErrInvalidSpec is returned when a NormalizationSpec cannot be applied.
var ErrInvalidSpec = errors.New("invalid normalization spec")

// NormalizationSpec describes the target of a normalization run.
type NormalizationSpec struct {
	// TargetDBFS is the desired mean loudness. Any finite value is accepted.
	TargetDBFS float64

	// Format is the output container. Only "mp3" is supported.
	Format string

	// BitrateKbps is the encoder bitrate in kilobits per second.
	BitrateKbps int
}

// DefaultSpec returns the -20 dBFS / mp3 / 320 kbps spec.
func DefaultSpec() NormalizationSpec {
	return NormalizationSpec{
		TargetDBFS:  DefaultTargetDBFS,
		Format:      FormatMP3,
		BitrateKbps: DefaultBitrateKbps,
	}
}

// Validate checks that the spec can be applied.
func (s NormalizationSpec) Validate() error {
	if math.IsNaN(s.TargetDBFS) || math.IsInf(s.TargetDBFS, 0) {
		return fmt.Errorf("%w: target %v dBFS is not a finite number", ErrInvalidSpec, s.TargetDBFS)
	}
	if s.Format != FormatMP3 {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidSpec, s.Format)
	}
	if s.BitrateKbps <= 0 {
		return fmt.Errorf("%w: bitrate must be positive, got %d", ErrInvalidSpec, s.BitrateKbps)
	}
	return nil
}

// GainFor returns the gain in dB that moves a source measured at
// loudnessDBFS onto the target. The result is not clamped.
func (s NormalizationSpec) GainFor(loudnessDBFS float64) float64 {
	return s.TargetDBFS - loudnessDBFS
}
