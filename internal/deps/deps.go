// Package deps reports whether the external tools the normalizer shells
// out to are installed.
package deps

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/handiism/audio-normalizer/internal/config"
)

// Requirement defines an external dependency the normalizer relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// CodecRequirements lists the tools named by the codec settings.
func CodecRequirements(c config.Codec) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: c.FFmpeg, Description: "Measures loudness and encodes MP3"},
		{Name: "FFprobe", Command: c.FFprobe, Description: "Reads stream layout and duration"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// ProbeVersions fills in Version for available tools by running
// "<cmd> -version" and keeping the first line of output.
func ProbeVersions(ctx context.Context, statuses []Status) {
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		out, err := exec.CommandContext(ctx, statuses[i].Command, "-version").Output()
		if err != nil {
			statuses[i].Detail = fmt.Sprintf("version check failed: %v", err)
			continue
		}
		line, _, _ := strings.Cut(string(out), "\n")
		statuses[i].Version = strings.TrimSpace(line)
	}
}

// HasEncoder reports whether ffmpeg lists encoder among its encoders.
func HasEncoder(ctx context.Context, ffmpeg, encoder string) (bool, error) {
	out, err := exec.CommandContext(ctx, ffmpeg, "-hide_banner", "-encoders").Output()
	if err != nil {
		return false, fmt.Errorf("list encoders: %w", err)
	}
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[1] == encoder {
			return true, nil
		}
	}
	return false, sc.Err()
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
