package classifieds

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"

	"listingscraper/lib/htmlutil"
	"listingscraper/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Listing is one result block from a search page.
type Listing struct {
	// 1-based position on the search page
	ID        int
	Title     string
	PriceText string
	// absolute URL of the detail page, empty when HasLink is false
	Link    string
	HasLink bool
	Brand   string
	Year    sql.Null[int64]
}

// FetchListings loads one search results page and returns its listings in
// document order. A page without listing blocks yields an empty slice.
func (c *Client) FetchListings(ctx context.Context, searchURL string) ([]Listing, error) {
	ctx, span := tracer.Start(ctx, "FetchListings")
	defer span.End()

	doc, base, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load search page")
		return nil, err
	}

	listings := c.parseListings(ctx, doc, base)
	span.SetAttributes(attribute.Int("listings", len(listings)))
	slog.InfoContext(ctx, "collected listings", "url", searchURL, "count", len(listings))
	return listings, nil
}

func (c *Client) parseListings(ctx context.Context, doc *goquery.Document, base *url.URL) []Listing {
	blocks := doc.Find(c.selectors.ListingBlock)
	if blocks.Length() == 0 {
		c.tel.ReportWarning("no_listings", "selector", c.selectors.ListingBlock)
		return []Listing{}
	}

	listings := []Listing{}
	blocks.EachWithBreak(func(i int, block *goquery.Selection) bool {
		if c.maxListings > 0 && len(listings) >= c.maxListings {
			return false
		}
		listings = append(listings, c.parseListing(ctx, i+1, block, base))
		return true
	})
	return listings
}

func (c *Client) parseListing(ctx context.Context, id int, block *goquery.Selection, base *url.URL) Listing {
	title, ok := htmlutil.SelectionText(block.Find(c.selectors.ListingTitle))
	if !ok {
		c.tel.ReportWarning("listing_field_missing", "field", "title", "listing", id)
	}
	title = textutil.NormalizeTitle(title)

	price, ok := htmlutil.SelectionText(block.Find(c.selectors.ListingPrice))
	if !ok {
		c.tel.ReportWarning("listing_field_missing", "field", "price", "listing", id)
	}

	listing := Listing{
		ID:        id,
		Title:     title,
		PriceText: price,
		Brand:     c.brands.Match(title),
		Year:      textutil.FindYear(title),
	}

	anchor, ok := htmlutil.FirstAnchor(ctx, block, base)
	if !ok {
		c.tel.ReportWarning("listing_field_missing", "field", "link", "listing", id)
		return listing
	}
	listing.Link = anchor.Href
	listing.HasLink = true
	return listing
}

// Links returns the detail links of the listings that have one, in order.
func Links(listings []Listing) []string {
	links := make([]string, 0, len(listings))
	for _, l := range listings {
		if l.HasLink {
			links = append(links, l.Link)
		}
	}
	return links
}
