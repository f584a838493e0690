package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/handiism/audio-normalizer/internal/logging"
	"github.com/handiism/audio-normalizer/internal/upload"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP upload service",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := ctx.settings
			log := ctx.logger()

			engine, err := ctx.engine()
			if err != nil {
				return err
			}
			svc, err := upload.NewService(engine, settings.Spec(), settings.Paths.UploadsDir, settings.Paths.NormalizedDir, logging.Component(log, "upload"))
			if err != nil {
				return err
			}

			opts := upload.OptionsFromSettings(settings.Server)
			if bind != "" {
				opts.Bind = bind
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = upload.NewServer(svc, opts, logging.Component(log, "http")).Run(runCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: server.bind)")
	return cmd
}
