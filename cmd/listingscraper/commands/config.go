package commands

import (
	"fmt"
	"net/url"
	"time"

	"listingscraper/internal/chrono"
	"listingscraper/internal/telemetry"
	"listingscraper/lib/configutil"
	"listingscraper/lib/restyutil"
	"listingscraper/lib/scrapers/classifieds"
)

type DelayConfig struct {
	MinMs int `json:"min_ms"`
	MaxMs int `json:"max_ms"`
}

type Config struct {
	SearchURL           string                `json:"search_url"`
	UserAgent           string                `json:"user_agent"`
	Headers             map[string]string     `json:"headers"`
	Brands              []string              `json:"brands"`
	FuzzyBrandThreshold float64               `json:"fuzzy_brand_threshold"`
	Delay               DelayConfig           `json:"delay"`
	TimeoutSeconds      int                   `json:"timeout_seconds"`
	ReferenceYear       int                   `json:"reference_year"`
	MaxListings         int                   `json:"max_listings"`
	Output              string                `json:"output"`
	CloudflareBypass    bool                  `json:"cloudflare_bypass"`
	Selectors           classifieds.Selectors `json:"selectors"`
}

func DefaultConfig() Config {
	return Config{
		SearchURL: "https://sfbay.craigslist.org/search/cta?query=car",
		UserAgent: classifieds.DefaultUserAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		Brands: []string{
			"acura", "audi", "bmw", "buick", "cadillac", "chevrolet", "chevy",
			"chrysler", "dodge", "fiat", "ford", "gmc", "honda", "hyundai",
			"infiniti", "jaguar", "jeep", "kia", "lexus", "lincoln", "mazda",
			"mercedes", "mercury", "mini", "mitsubishi", "nissan", "pontiac",
			"porsche", "ram", "saturn", "scion", "subaru", "tesla", "toyota",
			"volkswagen", "vw", "volvo",
		},
		Delay:          DelayConfig{MinMs: 1000, MaxMs: 3000},
		TimeoutSeconds: 20,
		Output:         "listings.csv",
		Selectors:      classifieds.DefaultSelectors(),
	}
}

// LoadConfig layers the config file (and its .local override) over the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(path, DefaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	link, err := url.Parse(c.SearchURL)
	if err != nil {
		return fmt.Errorf("invalid search url: %w", err)
	}
	if link.Scheme != "http" && link.Scheme != "https" {
		return fmt.Errorf("search url must be http(s), got %q", c.SearchURL)
	}
	if c.Delay.MinMs < 0 || c.Delay.MaxMs < c.Delay.MinMs {
		return fmt.Errorf("delay bounds must satisfy 0 <= min_ms <= max_ms, got %d..%d", c.Delay.MinMs, c.Delay.MaxMs)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	if len(c.Brands) == 0 {
		return fmt.Errorf("brand vocabulary must not be empty")
	}
	if c.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}
	return nil
}

// RefYear is the year listing ages are computed against.
func (c Config) RefYear(clock chrono.TimeAPI) int {
	if c.ReferenceYear > 0 {
		return c.ReferenceYear
	}
	return chrono.Year(clock)
}

func (c Config) ClientOptions(delay bool, api telemetry.API, output restyutil.InstrumentOutput) classifieds.ClientOptions {
	opts := classifieds.ClientOptions{
		UserAgent:           c.UserAgent,
		Headers:             c.Headers,
		Timeout:             time.Duration(c.TimeoutSeconds) * time.Second,
		CloudflareBypass:    c.CloudflareBypass,
		Brands:              c.Brands,
		FuzzyBrandThreshold: c.FuzzyBrandThreshold,
		MaxListings:         c.MaxListings,
		Selectors:           c.Selectors,
		Delayer:             classifieds.NoDelay{},
		Telemetry:           api,
		InstrumentOutput:    output,
	}
	if delay {
		opts.Delayer = classifieds.RandomDelayer{
			Min: time.Duration(c.Delay.MinMs) * time.Millisecond,
			Max: time.Duration(c.Delay.MaxMs) * time.Millisecond,
		}
	}
	return opts
}
