package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/handiism/audio-normalizer/internal/normalize"
)

func newFileCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "file PATH",
		Short: "Normalize a single file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := ctx.settings
			if outDir == "" {
				outDir = settings.Paths.NormalizedDir
			}

			engine, err := ctx.engine()
			if err != nil {
				return err
			}

			result, err := engine.Normalize(cmd.Context(), normalize.Request{
				InputPath: args[0],
				OutputDir: outDir,
				Spec:      settings.Spec(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s -> %s\n", filepath.Base(result.InputPath), result.OutputPath)
			fmt.Fprintf(out, "  source %s dBFS, gain %s dB, %s, cover: %s\n",
				formatDB(result.SourceDBFS), formatDB(result.AppliedGainDB), fileSize(result.OutputPath), yesNo(result.CoverAttached))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: paths.normalized_dir)")
	return cmd
}
