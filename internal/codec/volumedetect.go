package codec

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?(?:inf|[0-9]+(?:\.[0-9]+)?))\s*dB`)
	maxVolumeRe  = regexp.MustCompile(`max_volume:\s*(-?(?:inf|[0-9]+(?:\.[0-9]+)?))\s*dB`)
)

// VolumeStats is the summary printed by ffmpeg's volumedetect filter.
type VolumeStats struct {
	MeanDBFS float64
	MaxDBFS  float64
}

// ParseVolumeDetect extracts mean and max volume from ffmpeg stderr.
// Silent input reports -inf, which parses to negative infinity.
func ParseVolumeDetect(stderr string) (VolumeStats, error) {
	var stats VolumeStats

	mean := meanVolumeRe.FindStringSubmatch(stderr)
	if mean == nil {
		return stats, fmt.Errorf("volumedetect: mean_volume not found in ffmpeg output")
	}
	v, err := strconv.ParseFloat(mean[1], 64)
	if err != nil {
		return stats, fmt.Errorf("volumedetect: parse mean_volume %q: %w", mean[1], err)
	}
	stats.MeanDBFS = v

	stats.MaxDBFS = stats.MeanDBFS
	if peak := maxVolumeRe.FindStringSubmatch(stderr); peak != nil {
		if v, err := strconv.ParseFloat(peak[1], 64); err == nil {
			stats.MaxDBFS = v
		}
	}
	return stats, nil
}
