// Package model defines the core data structures shared by the
// normalization engine, the batch orchestrator and the upload service.
//
// # Audio Asset
//
// AudioAsset is what the codec service hands back after decoding a file:
// its measured loudness, duration and any cover art found in its tags.
//
//	asset, err := codec.Decode(ctx, "/music/song.mp3")
//	fmt.Printf("%s: %.2f dBFS\n", asset.Name(), asset.LoudnessDBFS)
//
// # Normalization Spec
//
// NormalizationSpec is the target every file is normalized towards:
//
//	spec := model.DefaultSpec() // -20 dBFS, mp3, 320 kbps
//	gain := spec.GainFor(asset.LoudnessDBFS)
//
// The gain is never clamped. A target of 0 dBFS on a loud source may clip.
//
// # Batch Outcome
//
// BatchOutcome is the terminal report of a batch run. Its Status is one of
// completed, cancelled, empty or failed, and Message returns the line shown
// to the user:
//
//	fmt.Println(outcome.Message()) // "Volume normalization success."
package model
