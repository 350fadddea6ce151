package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"listingscraper/internal/chrono"
	"listingscraper/internal/telemetry"
	"listingscraper/lib/listingtable"
	"listingscraper/lib/restyutil"
	"listingscraper/lib/scrapers/classifieds"
	"listingscraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

type scrapeFlags struct {
	url           string
	out           string
	noDelay       bool
	max           int
	referenceYear int
	dumpHttp      string
}

var scrapeOpts scrapeFlags

var clock chrono.TimeAPI = chrono.StandardTime{}

func init() {
	bindScrapeFlags(scrapeCmd, &scrapeOpts)
	rootCmd.AddCommand(scrapeCmd)
}

func bindScrapeFlags(cmd *cobra.Command, f *scrapeFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "", "Search results page to scrape, overrides search_url.")
	flags.StringVarP(&f.out, "out", "o", "", "CSV file to write, overrides output.")
	flags.BoolVar(&f.noDelay, "no-delay", false, "Skip the random delay between detail requests.")
	flags.IntVar(&f.max, "max", 0, "Only crawl the first N listings, overrides max_listings.")
	flags.IntVar(&f.referenceYear, "reference-year", 0, "Year ages are computed against, overrides reference_year.")
	flags.StringVar(&f.dumpHttp, "dump-http", ".dev/resty/classifieds", "Directory for full HTTP dumps, only written with --verbose.")
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cmd *cobra.Command, cfg Config, f scrapeFlags) Config {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.SearchURL = f.url
	}
	if flags.Changed("out") {
		cfg.Output = f.out
	}
	if flags.Changed("max") {
		cfg.MaxListings = f.max
	}
	if flags.Changed("reference-year") {
		cfg.ReferenceYear = f.referenceYear
	}
	return cfg
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--url <search url>] [--out <path/to/listings.csv>] [--no-delay] [--max <n>]",
	Short: "Collects listings from a search page, crawls their detail pages and writes a CSV.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		cfg = applyFlags(cmd, cfg, scrapeOpts)
		err = cfg.Validate()
		if err != nil {
			serviceutil.Fatal("invalid config", err)
		}

		var output restyutil.InstrumentOutput
		if verbose && scrapeOpts.dumpHttp != "" {
			fsOutput, err := restyutil.NewFilesystemOutput(scrapeOpts.dumpHttp)
			if err != nil {
				serviceutil.Fatal("failed to prepare http dump directory", err)
			}
			output = fsOutput
		}

		client, err := classifieds.NewClient(cfg.ClientOptions(!scrapeOpts.noDelay, telemetry.SlogAPI{}, output))
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}

		t1 := time.Now()
		records, err := runScrape(cmd.Context(), client, cfg.SearchURL, cfg.RefYear(clock))
		if err != nil {
			serviceutil.Fatal("failed to collect listings", err)
		}

		err = listingtable.WriteCSV(cfg.Output, records)
		if err != nil {
			serviceutil.Fatal("failed to write csv", err)
		}
		t2 := time.Now()

		slog.Info(
			"scrape finished",
			"records", len(records),
			"output", cfg.Output,
			"seconds", t2.Sub(t1).Seconds(),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), cfg.Output)
	},
}

// runScrape collects the search page, crawls every linked detail page and
// joins the two. Only a failure to load the search page is an error.
func runScrape(ctx context.Context, client *classifieds.Client, searchURL string, referenceYear int) ([]listingtable.Record, error) {
	listings, err := client.FetchListings(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	details := client.Crawl(ctx, classifieds.Links(listings))
	records := listingtable.Join(listings, details, referenceYear)

	statuses := map[string]int{}
	for _, r := range records {
		statuses[r.Status]++
	}
	slog.InfoContext(
		ctx, "joined listings",
		"listings", len(listings),
		"ok", statuses[string(classifieds.StatusOK)],
		"fetch_failed", statuses[string(classifieds.StatusFetchFailed)],
		"parse_failed", statuses[string(classifieds.StatusParseFailed)],
		"no_link", statuses[string(classifieds.StatusNoLink)],
	)
	return records, nil
}
