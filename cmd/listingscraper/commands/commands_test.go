package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"listingscraper/internal/chrono"
	"listingscraper/internal/telemetry"
	"listingscraper/lib/listingtable"
	"listingscraper/lib/scrapers/classifieds"
	"listingscraper/lib/textutil"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body><ol>
<li class="cl-static-search-result"><a href="/cto/d/1.html"><div class="title">2016 Mazda 3</div><div class="price">$9,900</div></a></li>
<li class="cl-static-search-result"><a href="/gone/2.html"><div class="title">2008 jeep wrangler</div><div class="price">$14,000</div></a></li>
</ol></body></html>`

const detailPage = `<html><body>
<span id="titletextonly">2016 Mazda 3 hatchback</span>
<div class="attr condition"><span class="valu">good</span></div>
<div class="attr auto_fuel_type"><span class="valu">gas</span></div>
<div class="attr auto_miles"><span class="valu">88,000</span></div>
<section id="postingbody">Daily driver.</section>
<div class="postinginfos"><time class="date" datetime="2024-02-01T10:00:00-0800">2024-02-01</time></div>
</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/cta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, searchPage)
	})
	mux.HandleFunc("/cto/d/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, detailPage)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 20, cfg.TimeoutSeconds)
	require.Contains(t, cfg.Brands, "toyota")
	require.Equal(t, 2024, cfg.RefYear(chrono.FixedTime(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))))

	cfg.ReferenceYear = 2020
	require.Equal(t, 2020, cfg.RefYear(chrono.StandardTime{}))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"ftp search url", func(c *Config) { c.SearchURL = "ftp://example.org" }},
		{"inverted delay", func(c *Config) { c.Delay = DelayConfig{MinMs: 500, MaxMs: 100} }},
		{"negative delay", func(c *Config) { c.Delay.MinMs = -1 }},
		{"negative timeout", func(c *Config) { c.TimeoutSeconds = -5 }},
		{"no brands", func(c *Config) { c.Brands = nil }},
		{"no output", func(c *Config) { c.Output = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scraper.json5")

	// missing file means defaults
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().SearchURL, cfg.SearchURL)

	err = os.WriteFile(path, []byte(`{
		// trailing commas and comments are fine
		search_url: "https://example.org/search/cta",
		brands: ["saab", "volvo"],
		delay: { min_ms: 10, max_ms: 20 },
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "scraper.local.json5"), []byte(`{
		output: "local.csv",
	}`), 0644)
	require.NoError(t, err)

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.org/search/cta", cfg.SearchURL)
	require.Equal(t, []string{"saab", "volvo"}, cfg.Brands)
	require.Equal(t, DelayConfig{MinMs: 10, MaxMs: 20}, cfg.Delay)
	require.Equal(t, "local.csv", cfg.Output)
	// untouched keys keep their defaults
	require.Equal(t, 20, cfg.TimeoutSeconds)
	require.Equal(t, classifieds.DefaultSelectors().ListingBlock, cfg.Selectors.ListingBlock)

	err = os.WriteFile(path, []byte(`{ delay: { min_ms: 0, max_ms: 500 }, timeout_seconds: 0 }`), 0644)
	require.NoError(t, err)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, DelayConfig{MinMs: 0, MaxMs: 500}, cfg.Delay)
	require.Equal(t, 0, cfg.TimeoutSeconds)
	require.NoError(t, cfg.Validate())

	err = os.WriteFile(path, []byte(`{ search_url: `), 0644)
	require.NoError(t, err)
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	cfg := DefaultConfig()

	opts := cfg.ClientOptions(false, telemetry.SlogAPI{}, nil)
	require.Equal(t, classifieds.NoDelay{}, opts.Delayer)
	require.Equal(t, 20*time.Second, opts.Timeout)

	opts = cfg.ClientOptions(true, telemetry.SlogAPI{}, nil)
	require.Equal(t, classifieds.RandomDelayer{Min: time.Second, Max: 3 * time.Second}, opts.Delayer)
}

func TestApplyFlags(t *testing.T) {
	var f scrapeFlags
	cmd := &cobra.Command{Use: "scrape"}
	bindScrapeFlags(cmd, &f)
	require.NoError(t, cmd.ParseFlags([]string{"--url", "https://example.org/search/cta", "--max", "0", "-o", "out.csv"}))

	cfg := DefaultConfig()
	cfg.MaxListings = 10
	cfg.ReferenceYear = 2001
	cfg = applyFlags(cmd, cfg, f)

	require.Equal(t, "https://example.org/search/cta", cfg.SearchURL)
	require.Equal(t, "out.csv", cfg.Output)
	// an explicit zero still wins
	require.Equal(t, 0, cfg.MaxListings)
	// unset flags leave the config alone
	require.Equal(t, 2001, cfg.ReferenceYear)
}

func TestRunScrape(t *testing.T) {
	server := newTestServer(t)

	cfg := DefaultConfig()
	cfg.SearchURL = server.URL + "/search/cta"
	rec := &telemetry.Recorder{}
	client, err := classifieds.NewClient(cfg.ClientOptions(false, rec, nil))
	require.NoError(t, err)

	records, err := runScrape(context.Background(), client, cfg.SearchURL, 2024)
	require.NoError(t, err)
	require.Len(t, records, 2)

	mazda := records[0]
	require.Equal(t, "mazda", mazda.Brand)
	require.Equal(t, int64(8), mazda.Age.V)
	require.Equal(t, 9900.0, mazda.Price.V)
	require.Equal(t, "good", mazda.Condition)
	require.Equal(t, int64(88000), mazda.Miles.V)
	require.Equal(t, textutil.Missing, mazda.Transmission)
	require.Equal(t, string(classifieds.StatusOK), mazda.Status)

	jeep := records[1]
	require.Equal(t, "jeep", jeep.Brand)
	require.Equal(t, string(classifieds.StatusFetchFailed), jeep.Status)
	require.Equal(t, textutil.Missing, jeep.Condition)
	require.Equal(t, server.URL+"/gone/2.html", jeep.Link)

	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, listingtable.WriteCSV(path, records))
	read, err := listingtable.ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, read, 2)
}

func TestRunScrapeSearchFailure(t *testing.T) {
	server := newTestServer(t)

	client, err := classifieds.NewClient(DefaultConfig().ClientOptions(false, &telemetry.Recorder{}, nil))
	require.NoError(t, err)

	_, err = runScrape(context.Background(), client, server.URL+"/nowhere", 2024)
	require.Error(t, err)
}

func TestRenderDescription(t *testing.T) {
	records := []listingtable.Record{
		{ID: 1, Brand: "honda", Fuel: "gas", Status: "ok"},
		{ID: 2, Brand: "honda", Fuel: "missing", Status: "fetch_failed"},
		{ID: 3, Brand: "ford", Fuel: "gas", Status: "ok"},
	}
	records[0].Price.V, records[0].Price.Valid = 1000, true
	records[2].Price.V, records[2].Price.Valid = 3000, true

	var out bytes.Buffer
	require.NoError(t, renderDescription(&out, records, []string{"brand"}))

	text := out.String()
	require.True(t, strings.HasPrefix(text, "3 records\n"))
	require.Contains(t, text, "2000.00")
	require.Contains(t, text, "COLUMN")
	require.Contains(t, text, "honda")

	require.Error(t, renderDescription(io.Discard, records, []string{"nope"}))
}
