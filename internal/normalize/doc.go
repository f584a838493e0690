// Package normalize implements single-file loudness normalization.
//
// For each input the Engine:
//
//  1. Decodes the file and measures its mean loudness L (dBFS)
//  2. Computes gain = target - L, unclamped
//  3. Reads the front cover from the ID3 tag, if any
//  4. Encodes the re-gained audio as a 320 kbps MP3 into a hidden temp file
//  5. Attaches the cover and renames the temp file onto outputDir/<name>
//
// # Basic Usage
//
//	engine := normalize.NewEngine(codecService, normalize.Options{}, log)
//	result, err := engine.Normalize(ctx, normalize.Request{
//	    InputPath: "/music/song.mp3",
//	    OutputDir: "/music/normalized",
//	    Spec:      model.DefaultSpec(),
//	})
//
// # Errors
//
// Failures are classified so callers can react at their boundary:
//
//	errors.Is(err, normalize.ErrDecode) // input unreadable, nothing written
//	errors.Is(err, normalize.ErrEncode) // output failed, partial file removed
//
// A missing cover is reported in NormalizationResult.CoverSkipReason and
// never fails the file.
package normalize
