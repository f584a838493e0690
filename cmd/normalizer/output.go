package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/handiism/audio-normalizer/internal/batch"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiDim    = "\033[2m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newEventPrinter returns a reporter that writes progress events as single
// lines.
func newEventPrinter(out io.Writer, verbose bool) batch.ReporterFunc {
	colorize := shouldColorize(out)
	return func(event batch.ProgressEvent) {
		if event.Level == batch.LevelVerbose && !verbose {
			// File completions still print a compact line.
			if event.Kind != batch.EventFileCompleted {
				return
			}
		}

		prefix, color := "  ", ansiDim
		switch event.Level {
		case batch.LevelError:
			prefix, color = "✗ ", ansiRed
		case batch.LevelWarning:
			prefix, color = "! ", ansiYellow
		case batch.LevelSuccess:
			prefix, color = "✓ ", ansiGreen
		case batch.LevelInfo:
			prefix, color = "› ", ansiBlue
		}
		line := prefix + event.Message
		if colorize {
			line = color + line + ansiReset
		}
		fmt.Fprintln(out, line)
	}
}

func formatDB(v float64) string {
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return fmt.Sprintf("%+.2f", v)
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return humanize.Bytes(uint64(info.Size()))
}
