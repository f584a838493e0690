// Package config provides configuration management for audio-normalizer.
//
// This package handles:
//   - Loading and saving settings from TOML files
//   - Default configuration values
//   - Validation and the annotated sample file
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// -20 dBFS target, 320 kbps mp3
//	// uploads/ and normalized/ for the upload service
//	// only .mp3 files are picked up in batch mode
//
// # Loading from File
//
//	settings, path, err := config.Load("")
//	// Looks in ~/.config/audio-normalizer/config.toml, then ./normalizer.toml.
//	// Uses defaults if neither exists.
//
// # Saving Settings
//
//	settings.Normalization.TargetDBFS = -16
//	err := settings.Save("/path/to/config.toml")
//
// # Configuration Sections
//
// Settings includes options for:
//   - [paths] upload and output directories
//   - [normalization] target loudness, bitrate and cover art handling
//   - [codec] ffmpeg and ffprobe binaries
//   - [server] bind address, timeouts, upload limits and CORS origins
//   - [batch] candidate extensions, failure policy, cover file and playlists
//   - [logging] level and format
package config
