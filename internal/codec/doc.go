// Package codec decodes, measures and encodes audio by driving the
// external ffmpeg and ffprobe binaries.
//
// The normalization engine depends only on the Service interface:
//
//	type Service interface {
//	    Decode(ctx, path) (*model.AudioAsset, error)
//	    Encode(ctx, asset, gainDB, spec, outPath) error
//	}
//
// # Measuring Loudness
//
// Decode probes the container with ffprobe and then runs ffmpeg's
// volumedetect filter over the first audio stream. The reported
// mean_volume is the RMS level of the signal relative to full scale, which
// is the loudness the gain is computed from:
//
//	c, _ := codec.NewFFmpeg(codec.ExecutorConfig{}, log)
//	asset, err := c.Decode(ctx, "song.mp3")
//	// asset.LoudnessDBFS == -27.3
//
// # Encoding
//
// Encode applies a fixed gain with the volume filter and writes a constant
// bitrate MP3 with libmp3lame. Metadata and attached pictures are dropped;
// cover art is re-attached by the caller.
package codec
