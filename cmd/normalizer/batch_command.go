package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/handiism/audio-normalizer/internal/batch"
	"github.com/handiism/audio-normalizer/internal/logging"
	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/handiism/audio-normalizer/internal/normalize"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var continueOnError bool
	var playlist string

	cmd := &cobra.Command{
		Use:   "batch [DIR]",
		Short: "Normalize every MP3 in a directory into DIR/normalized",
		Long: "Normalize every MP3 in a directory, one file at a time, into a normalized/ subfolder.\n\n" +
			"Press Ctrl+C once to stop after the current file, twice to abort immediately.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := ctx.settings
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			engine, err := ctx.engine()
			if err != nil {
				return err
			}

			opts := batch.OptionsFromSettings(settings)
			if cmd.Flags().Changed("continue-on-error") {
				opts.ContinueOnError = continueOnError
			}
			if cmd.Flags().Changed("playlist") {
				opts.Playlist = playlist
			}
			orch := batch.NewOrchestrator(engine, opts, logging.Component(ctx.logger(), "batch"))

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			token := batch.NewCancelToken()
			tracker := batch.NewTracker()
			stop := watchInterrupts(cmd, token, tracker, cancel)
			defer stop()

			out := cmd.OutOrStdout()
			reporter := batch.MultiReporter{newEventPrinter(out, ctx.flags.verbose), tracker}
			outcome, err := orch.Run(runCtx, dir, settings.Spec(), token, reporter)
			if outcome == nil {
				return err
			}

			if len(outcome.Results) > 0 || len(outcome.Failures) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, summaryTable(outcome))
			}

			switch outcome.Status {
			case model.BatchCancelled:
				return &exitError{code: 130}
			case model.BatchFailed:
				return &exitError{code: 1, err: err}
			}
			if len(outcome.Failures) > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d file(s) failed", len(outcome.Failures))}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep going when a file fails")
	cmd.Flags().StringVar(&playlist, "playlist", "", "Write a playlist of the outputs (m3u, pls, wpl, zpl)")
	return cmd
}

// watchInterrupts sets the latch on the first interrupt and cancels ctx on
// the second. The returned func stops watching.
func watchInterrupts(cmd *cobra.Command, token *batch.CancelToken, tracker *batch.Tracker, cancel context.CancelFunc) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigCh:
				if token.Cancel() {
					finished, total := tracker.GetProgress()
					fmt.Fprintf(cmd.ErrOrStderr(), "\nStopping after the current file, %d/%d done (Ctrl+C again to abort)...\n", finished, total)
					continue
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "\nAborting...")
				cancel()
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func summaryTable(outcome *model.BatchOutcome) string {
	headers := []string{"File", "Source dBFS", "Gain dB", "Size", "Cover"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(outcome.Results)+len(outcome.Failures))
	var total uint64
	for _, r := range outcome.Results {
		if info, err := os.Stat(r.OutputPath); err == nil {
			total += uint64(info.Size())
		}
		rows = append(rows, []string{
			r.OutputName,
			formatDB(r.SourceDBFS),
			formatDB(r.AppliedGainDB),
			fileSize(r.OutputPath),
			yesNo(r.CoverAttached),
		})
	}
	for _, f := range outcome.Failures {
		rows = append(rows, []string{f.File, "failed", normalize.Kind(f.Err), "-", "-"})
	}

	return renderTable(headers, rows, aligns) + "\n" +
		fmt.Sprintf("%s %d/%d file(s), %s in %s", outcome.Message(), outcome.Succeeded(), outcome.Total, humanize.Bytes(total), filepath.Clean(outcome.OutputDir))
}
