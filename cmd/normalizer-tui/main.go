package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/handiism/audio-normalizer/internal/codec"
	"github.com/handiism/audio-normalizer/internal/config"
	"github.com/handiism/audio-normalizer/internal/logging"
	"github.com/handiism/audio-normalizer/internal/normalize"
	"github.com/handiism/audio-normalizer/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	flag.Parse()

	if err := run(*configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	settings, _, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so logs go to a file.
	logPath := filepath.Join(os.TempDir(), "audio-normalizer-tui.log")
	log, err := logging.New(logging.Options{
		Level:       settings.Logging.Level,
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	ff, err := codec.NewFFmpeg(codec.ExecutorConfig{
		FFmpegPath:  settings.Codec.FFmpeg,
		FFprobePath: settings.Codec.FFprobe,
	}, logging.Component(log, "codec"))
	if err != nil {
		return err
	}
	engine := normalize.NewEngine(ff, normalize.Options{
		CoverMaxSize: settings.Normalization.CoverMaxSize,
		CoverToJPEG:  settings.Normalization.CoverToJPEG,
	}, logging.Component(log, "normalize"))

	return tui.Run(settings, engine, logging.Component(log, "tui"))
}
