package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/windwalker/windwalker/internal/config"
	"github.com/windwalker/windwalker/internal/contentdm"
	"github.com/windwalker/windwalker/internal/fetcher"
	"github.com/windwalker/windwalker/internal/ingest"
	"github.com/windwalker/windwalker/internal/model"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Replace all treaties of the configured archive source",
	Long: "Upserts the archive's data source row, deletes its previously ingested treaties, " +
		"then fetches the collection index and inserts one normalized record per leaf.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts := ingestOptions(cfg.Archive)
		if isatty.IsTerminal(os.Stderr.Fd()) {
			opts.Progress = progressReporter(os.Stderr)
		}

		f := fetcher.NewHTTPFetcher(archiveHTTPOptions(cfg.Archive))
		return runIngest(ctx, ingest.NewCoordinator(st, f, opts), os.Stdout)
	},
}

type ingestRunner interface {
	Run(ctx context.Context) (*model.RunSummary, error)
}

func runIngest(ctx context.Context, c ingestRunner, out io.Writer) error {
	summary, err := c.Run(ctx)
	if summary != nil {
		printSummary(out, summary)
	}
	if err != nil {
		return eris.Wrap(err, "ingest")
	}
	return nil
}

func printSummary(w io.Writer, s *model.RunSummary) {
	fmt.Fprintln(w, color.CyanString("Ingest complete"))
	fmt.Fprintln(w, color.GreenString("  Successful: %d", s.Success))
	if s.Errors > 0 {
		fmt.Fprintln(w, color.RedString("  Errors:     %d", s.Errors))
	} else {
		fmt.Fprintf(w, "  Errors:     %d\n", s.Errors)
	}
	fmt.Fprintf(w, "  Total:      %d\n", s.Total)
}

// progressReporter draws a bar on w; the bar is created once the total is
// known.
func progressReporter(w io.Writer) func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription(color.BlueString("treaties")),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
			)
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
			fmt.Fprintln(w)
		}
	}
}

func archiveHTTPOptions(a config.ArchiveConfig) fetcher.HTTPOptions {
	return fetcher.HTTPOptions{
		UserAgent:          a.UserAgent,
		Timeout:            a.Timeout(),
		MinDelay:           a.MinDelay(),
		InsecureSkipVerify: a.InsecureSkipVerify,
	}
}

func ingestOptions(a config.ArchiveConfig) ingest.Options {
	return ingest.Options{
		Archive: contentdm.Archive{
			BaseURL:    a.BaseURL,
			APIPath:    a.APIPath,
			Collection: a.Collection,
		},
		IndexPointer: a.IndexPointer,
		Source: model.DataSource{
			SourceID:    a.SourceID,
			Name:        a.SourceName,
			SourceType:  model.SourceType(a.SourceType),
			BaseURL:     a.BaseURL,
			Reliability: a.Reliability,
		},
		Volume:        a.Volume,
		FetchItemInfo: a.FetchItemInfo,
	}
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
