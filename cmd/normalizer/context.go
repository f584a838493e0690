package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/handiism/audio-normalizer/internal/codec"
	"github.com/handiism/audio-normalizer/internal/config"
	"github.com/handiism/audio-normalizer/internal/logging"
	"github.com/handiism/audio-normalizer/internal/normalize"
)

type globalFlags struct {
	config  string
	verbose bool
	target  float64
	bitrate int
}

type commandContext struct {
	flags *globalFlags

	once       sync.Once
	settings   *config.Settings
	configPath string
	log        *zap.Logger
	err        error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureSettings loads the config once and applies flag overrides.
func (c *commandContext) ensureSettings(cmd *cobra.Command) (*config.Settings, error) {
	c.once.Do(func() {
		settings, path, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.err = err
			return
		}

		if flagChanged(cmd, "target") {
			settings.Normalization.TargetDBFS = c.flags.target
		}
		if flagChanged(cmd, "bitrate") {
			settings.Normalization.BitrateKbps = c.flags.bitrate
		}
		if c.flags.verbose {
			settings.Logging.Level = "debug"
		}
		if err := settings.Validate(); err != nil {
			c.err = err
			return
		}

		log, err := logging.New(logging.Options{
			Level:  settings.Logging.Level,
			Format: settings.Logging.Format,
		})
		if err != nil {
			c.err = fmt.Errorf("init logging: %w", err)
			return
		}

		c.settings = settings
		c.configPath = path
		c.log = log
	})
	return c.settings, c.err
}

func (c *commandContext) logger() *zap.Logger {
	if c.log == nil {
		return zap.NewNop()
	}
	return c.log
}

// engine wires the ffmpeg codec into a normalization engine.
func (c *commandContext) engine() (*normalize.Engine, error) {
	s := c.settings
	log := c.logger()

	ff, err := codec.NewFFmpeg(codec.ExecutorConfig{
		FFmpegPath:  s.Codec.FFmpeg,
		FFprobePath: s.Codec.FFprobe,
	}, logging.Component(log, "codec"))
	if err != nil {
		return nil, fmt.Errorf("%w (run `normalizer deps` for details)", err)
	}

	return normalize.NewEngine(ff, normalize.Options{
		CoverMaxSize: s.Normalization.CoverMaxSize,
		CoverToJPEG:  s.Normalization.CoverToJPEG,
	}, logging.Component(log, "normalize")), nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
