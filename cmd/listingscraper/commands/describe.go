package commands

import (
	"fmt"
	"io"
	"strconv"

	"listingscraper/lib/listingtable"
	"listingscraper/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	describeInput  string
	describeCounts []string
)

func init() {
	describeCmd.Flags().StringVarP(&describeInput, "input", "i", "", "CSV export to read, defaults to the configured output.")
	describeCmd.Flags().StringSliceVar(&describeCounts, "counts", []string{"brand", "condition", "fuel", "transmission", "status"}, "Text columns to print value counts for.")
	rootCmd.AddCommand(describeCmd)
}

var describeCmd = &cobra.Command{
	Use:   "describe [--input <path/to/listings.csv>] [--counts brand,fuel]",
	Short: "Prints descriptive statistics of a scrape export.",
	Run: func(cmd *cobra.Command, args []string) {
		input := describeInput
		if input == "" {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				serviceutil.Fatal("failed to read config", err)
			}
			input = cfg.Output
		}

		records, err := listingtable.ReadCSV(input)
		if err != nil {
			serviceutil.Fatal("failed to read export", err)
		}

		err = renderDescription(cmd.OutOrStdout(), records, describeCounts)
		if err != nil {
			serviceutil.Fatal("failed to describe export", err)
		}
	},
}

func formatStat(v float64, count int) string {
	if count == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func renderDescription(out io.Writer, records []listingtable.Record, countColumns []string) error {
	summaries, err := listingtable.Describe(records)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d records\n", len(records))

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Column,
			s.Count,
			formatStat(s.Mean, s.Count),
			formatStat(s.Std, s.Count),
			formatStat(s.Min, s.Count),
			formatStat(s.Q1, s.Count),
			formatStat(s.Median, s.Count),
			formatStat(s.Q3, s.Count),
			formatStat(s.Max, s.Count),
		})
	}
	t.Render()

	for _, column := range countColumns {
		counts, err := listingtable.ValueCounts(records, column)
		if err != nil {
			return err
		}

		ct := table.NewWriter()
		ct.SetOutputMirror(out)
		ct.SetTitle(column)
		ct.AppendHeader(table.Row{"value", "count"})
		for _, c := range counts {
			ct.AppendRow(table.Row{c.Value, c.Count})
		}
		ct.Render()
	}
	return nil
}
