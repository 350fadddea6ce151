package classifieds

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"listingscraper/internal/telemetry"
	"listingscraper/lib/htmlutil"
	"listingscraper/lib/restyutil"
	"listingscraper/lib/textutil"

	"dario.cat/mergo"
	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("listingscraper.lib.scrapers.classifieds")

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const DefaultTimeout = 20 * time.Second

type ClientOptions struct {
	UserAgent string
	Headers   map[string]string
	// zero means DefaultTimeout
	Timeout          time.Duration
	CloudflareBypass bool

	Brands              []string
	FuzzyBrandThreshold float64
	// zero means every listing on the page
	MaxListings int

	Selectors Selectors
	// nil means NoDelay
	Delayer Delayer
	// nil means telemetry.SlogAPI
	Telemetry telemetry.API
	// optional sink for full HTTP dumps in verbose mode
	InstrumentOutput restyutil.InstrumentOutput
}

type Client struct {
	Http *resty.Client

	selectors   Selectors
	brands      textutil.BrandMatcher
	maxListings int
	delayer     Delayer
	tel         telemetry.API
}

func defaultClientOptions() ClientOptions {
	return ClientOptions{
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
		Selectors: DefaultSelectors(),
	}
}

// NewClient fills every zero option (including single selectors) from the
// defaults before building the resty client. Interface options are
// defaulted by hand, mergo would try to merge their dynamic values.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.FuzzyBrandThreshold < 0 || opts.FuzzyBrandThreshold > 1 {
		return nil, fmt.Errorf("fuzzy brand threshold must be within [0, 1], got %v", opts.FuzzyBrandThreshold)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %v", opts.Timeout)
	}
	err := mergo.Merge(&opts, defaultClientOptions())
	if err != nil {
		return nil, fmt.Errorf("apply client defaults: %w", err)
	}
	if opts.Delayer == nil {
		opts.Delayer = NoDelay{}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.SlogAPI{}
	}

	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	// explicit headers win over the user agent option
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeaders(opts.Headers)
	client.SetTimeout(opts.Timeout)

	restyutil.InstrumentClient(client, otel.Tracer("listingscraper.lib.scrapers.classifieds/http"), opts.InstrumentOutput)

	return &Client{
		Http:        client,
		selectors:   opts.Selectors,
		brands:      textutil.NewBrandMatcher(opts.Brands, opts.FuzzyBrandThreshold),
		maxListings: opts.MaxListings,
		delayer:     opts.Delayer,
		tel:         telemetry.NewScopedAPI("classifieds", opts.Telemetry),
	}, nil
}

// fetchDocument performs one GET and parses the body. The returned URL is the
// final one after redirects, used to resolve relative links.
func (c *Client) fetchDocument(ctx context.Context, link string) (*goquery.Document, *url.URL, error) {
	ctx, span := tracer.Start(ctx, "fetchDocument")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, nil, &FetchError{URL: link, Err: err}
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, nil, &FetchError{
			URL:        link,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("unexpected status %s", res.Status()),
		}
	}

	doc, err := htmlutil.ParseDocument(res.Body(), res.Header().Get("Content-Type"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, nil, &ParseError{URL: link, Err: err}
	}

	final, err := url.Parse(link)
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final, err = res.RawResponse.Request.URL, nil
	}
	if err != nil {
		return nil, nil, &ParseError{URL: link, Err: err}
	}
	return doc, final, nil
}
