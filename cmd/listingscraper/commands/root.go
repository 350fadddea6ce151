package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"listingscraper/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	tel        telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "listingscraper",
	Short: "listingscraper collects classifieds vehicle listings into a CSV and summarises them.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)

		var err error
		tel, err = telemetry.SetupFromEnv(cmd.Context(), "listingscraper")
		if err != nil {
			slog.Warn("telemetry disabled", "err", err)
			return
		}
		if tel.Enabled() {
			telemetry.InstrumentPerfStats(cmd.Context(), 30*time.Second)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "scraper.json5", "Path to the scraper config, a <name>.local.json5 next to it overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
