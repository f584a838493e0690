package codec

import (
	"math"
	"testing"
)

func TestParseVolumeDetect(t *testing.T) {
	tests := []struct {
		name     string
		stderr   string
		wantMean float64
		wantMax  float64
		wantErr  bool
	}{
		{
			name: "typical",
			stderr: `[Parsed_volumedetect_0 @ 0x55d] n_samples: 2646000
[Parsed_volumedetect_0 @ 0x55d] mean_volume: -27.3 dB
[Parsed_volumedetect_0 @ 0x55d] max_volume: -4.1 dB`,
			wantMean: -27.3,
			wantMax:  -4.1,
		},
		{
			name:     "integer values",
			stderr:   "mean_volume: -20 dB\nmax_volume: 0 dB\n",
			wantMean: -20,
			wantMax:  0,
		},
		{
			name:     "missing max falls back to mean",
			stderr:   "mean_volume: -18.25 dB\n",
			wantMean: -18.25,
			wantMax:  -18.25,
		},
		{
			name:     "silence",
			stderr:   "mean_volume: -inf dB\nmax_volume: -inf dB\n",
			wantMean: math.Inf(-1),
			wantMax:  math.Inf(-1),
		},
		{
			name:    "no report",
			stderr:  "Invalid data found when processing input\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVolumeDetect(tt.stderr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVolumeDetect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.MeanDBFS != tt.wantMean {
				t.Errorf("MeanDBFS = %v, want %v", got.MeanDBFS, tt.wantMean)
			}
			if got.MaxDBFS != tt.wantMax {
				t.Errorf("MaxDBFS = %v, want %v", got.MaxDBFS, tt.wantMax)
			}
		})
	}
}

func TestVolumeFilter(t *testing.T) {
	tests := []struct {
		gain float64
		want string
	}{
		{10, "volume=10.0000dB"},
		{-7.5, "volume=-7.5000dB"},
		{0, "volume=0.0000dB"},
	}
	for _, tt := range tests {
		if got := VolumeFilter(tt.gain); got != tt.want {
			t.Errorf("VolumeFilter(%v) = %q, want %q", tt.gain, got, tt.want)
		}
	}
}
