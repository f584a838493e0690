package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	client "github.com/handiism/audio-normalizer/internal/http"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var server string
	var outDir string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Send a file to a running normalizer server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.NewClient(server)
			out := cmd.OutOrStdout()

			if _, err := c.Get(cmd.Context(), "/healthz"); err != nil {
				return fmt.Errorf("server %s is not reachable: %w", server, err)
			}

			resp, err := c.Upload(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("upload %s: %w", args[0], err)
			}
			fmt.Fprintf(out, "Uploaded %s, normalized at %s\n", resp.Filename, resp.NormalizedFileURL)

			if outDir == "" {
				return nil
			}
			dest := filepath.Join(outDir, resp.Filename)
			var last int64
			err = c.DownloadFile(cmd.Context(), resp.NormalizedFileURL, dest, func(written, total int64) {
				last = written
			})
			if client.IsNotFound(err) {
				return fmt.Errorf("download %s: normalized file is no longer on the server", resp.NormalizedFileURL)
			}
			if err != nil {
				return fmt.Errorf("download %s: %w", resp.NormalizedFileURL, err)
			}
			fmt.Fprintf(out, "Saved %s (%s)\n", dest, humanize.Bytes(uint64(last)))
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8000", "Base URL of the normalizer server")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Download the normalized file into this directory")
	return cmd
}
