package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/windwalker/windwalker/internal/model"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List data sources and their treaty counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("read"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sources, err := st.ListSources(ctx)
		if err != nil {
			return eris.Wrap(err, "sources")
		}
		if len(sources) == 0 {
			fmt.Fprintln(os.Stderr, "No sources found.")
			return nil
		}

		counts := make(map[int64]int64, len(sources))
		for _, src := range sources {
			n, err := st.CountTreaties(ctx, src.ID)
			if err != nil {
				return eris.Wrapf(err, "sources: count %s", src.SourceID)
			}
			counts[src.ID] = n
		}

		formatSources(os.Stdout, sources, counts)
		return nil
	},
}

func formatSources(w io.Writer, sources []model.DataSource, counts map[int64]int64) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTYPE\tRELIABILITY\tTREATIES\tLAST SCRAPED\tNAME")
	for _, src := range sources {
		last := "never"
		if src.LastScraped != nil {
			last = src.LastScraped.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%s\t%s\n",
			src.SourceID, src.SourceType, src.Reliability, counts[src.ID], last, src.Name)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
