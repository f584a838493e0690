package model

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// AudioAsset is a decoded audio file together with the measurements the
// normalization engine needs.
//
// The decoded samples themselves stay inside the codec process; an asset
// only owns the numbers measured from them and an independent copy of the
// cover art.
type AudioAsset struct {
	// SourcePath is the file the asset was decoded from.
	SourcePath string

	// LoudnessDBFS is the mean (RMS) level of the audio relative to full
	// scale. Digital silence measures as negative infinity.
	LoudnessDBFS float64

	// PeakDBFS is the highest sample level relative to full scale.
	PeakDBFS float64

	// Duration is the playing time reported by the container.
	Duration time.Duration

	// Codec is the name of the audio codec of the first audio stream.
	Codec string

	// Cover is the embedded front cover, nil when the file carries none.
	Cover *CoverArt
}

// Name returns the base file name of the source.
func (a *AudioAsset) Name() string {
	return filepath.Base(a.SourcePath)
}

// IsSilent reports whether the measured loudness is negative infinity.
func (a *AudioAsset) IsSilent() bool {
	return math.IsInf(a.LoudnessDBFS, -1)
}

// HasCover reports whether cover art was found.
func (a *AudioAsset) HasCover() bool {
	return a.Cover != nil && len(a.Cover.Data) > 0
}

// CoverArt is an embedded picture taken from, or destined for, an ID3 tag.
type CoverArt struct {
	MimeType    string
	Description string
	PictureType byte
	Data        []byte
}

// Clone returns a deep copy so the caller may keep the bytes after the
// source tag has been closed.
func (c *CoverArt) Clone() *CoverArt {
	if c == nil {
		return nil
	}
	data := make([]byte, len(c.Data))
	copy(data, c.Data)
	return &CoverArt{
		MimeType:    c.MimeType,
		Description: c.Description,
		PictureType: c.PictureType,
		Data:        data,
	}
}

// Extension returns the file extension matching the picture's MIME type.
func (c *CoverArt) Extension() string {
	switch strings.ToLower(c.MimeType) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
