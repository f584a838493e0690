package model

import "time"

// NormalizationResult reports what happened to a single file.
type NormalizationResult struct {
	InputPath  string
	OutputPath string

	// OutputName is the base name of OutputPath; it always equals the
	// base name of InputPath.
	OutputName string

	Success bool

	// SourceDBFS is the loudness measured before normalization.
	SourceDBFS float64

	// AppliedGainDB is the gain passed to the encoder.
	AppliedGainDB float64

	Duration time.Duration

	// CoverAttached is true when cover art was carried into the output.
	CoverAttached bool

	// CoverSkipReason explains a missing cover, empty when CoverAttached.
	CoverSkipReason string
}

// FileFailure records a file that could not be normalized during a batch
// run that continues past errors.
type FileFailure struct {
	Index int
	File  string
	Err   error
}
