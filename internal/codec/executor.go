package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const maxStderrTail = 2048

// ExecError reports a failed ffmpeg or ffprobe invocation.
type ExecError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s failed (exit code %d)", e.Tool, e.ExitCode)
	if line := lastLine(e.Stderr); line != "" {
		msg += ": " + line
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ExecutorConfig holds the binaries to run. Empty paths are looked up on PATH.
type ExecutorConfig struct {
	FFmpegPath  string
	FFprobePath string
}

// Executor runs ffmpeg and ffprobe.
type Executor struct {
	ffmpegPath  string
	ffprobePath string
	log         *zap.Logger
}

// NewExecutor resolves the configured binaries.
func NewExecutor(cfg ExecutorConfig, log *zap.Logger) (*Executor, error) {
	ffmpegPath, err := resolveBinary(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobePath, err := resolveBinary(cfg.FFprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         log,
	}, nil
}

func resolveBinary(configured, fallback string) (string, error) {
	name := strings.TrimSpace(configured)
	if name == "" {
		name = fallback
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", name, err)
	}
	return path, nil
}

// Run executes ffmpeg and returns its stderr, where ffmpeg writes both
// diagnostics and filter reports.
func (e *Executor) Run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log.Debug("executing ffmpeg", zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		return stderr.String(), newExecError("ffmpeg", args, stderr.String(), err)
	}
	return stderr.String(), nil
}

// Probe runs ffprobe on inputPath and returns its JSON report.
func (e *Executor) Probe(ctx context.Context, inputPath string) ([]byte, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, newExecError("ffprobe", args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

func newExecError(tool string, args []string, stderr string, err error) *ExecError {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if len(stderr) > maxStderrTail {
		stderr = stderr[len(stderr)-maxStderrTail:]
	}
	return &ExecError{
		Tool:     tool,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
