package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handiism/audio-normalizer/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that ffmpeg and ffprobe are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.CheckBinaries(deps.CodecRequirements(ctx.settings.Codec))
			deps.ProbeVersions(cmd.Context(), statuses)

			rows := make([][]string, 0, len(statuses)+1)
			for _, s := range statuses {
				detail := s.Version
				if detail == "" {
					detail = s.Detail
				}
				rows = append(rows, []string{s.Name, s.Command, yesNo(s.Available), detail})
			}

			ffmpeg := statuses[0]
			if ffmpeg.Available {
				ok, err := deps.HasEncoder(cmd.Context(), ffmpeg.Command, "libmp3lame")
				detail := "MP3 encoder"
				if err != nil {
					detail = err.Error()
				}
				rows = append(rows, []string{"libmp3lame", ffmpeg.Command, yesNo(ok), detail})
				if !ok {
					defer fmt.Fprintln(cmd.ErrOrStderr(), "ffmpeg was built without libmp3lame; MP3 export will fail")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Command", "Available", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d required dependency(ies) missing", len(missing))}
			}
			return nil
		},
	}
}
