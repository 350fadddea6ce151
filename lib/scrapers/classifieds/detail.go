package classifieds

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"listingscraper/lib/htmlutil"
	"listingscraper/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type DetailStatus string

const (
	StatusOK          DetailStatus = "ok"
	StatusFetchFailed DetailStatus = "fetch_failed"
	StatusParseFailed DetailStatus = "parse_failed"
	// the listing had no link so there was nothing to crawl
	StatusNoLink DetailStatus = "no_link"
)

// Detail holds the attributes read from one listing's detail page.
// Text fields hold textutil.Missing when absent, MilesText is empty when
// absent.
type Detail struct {
	URL          string
	Title        string
	Condition    string
	Drivetrain   string
	Fuel         string
	Color        string
	TitleStatus  string
	Transmission string
	BodyType     string
	Cylinders    string
	MilesText    string
	PostedYear   sql.Null[int64]
	Description  string

	Status        DetailStatus
	MissingFields []Field
}

// SentinelDetail is a record where every field is missing.
func SentinelDetail(link string, status DetailStatus) Detail {
	return Detail{
		URL:           link,
		Title:         textutil.Missing,
		Condition:     textutil.Missing,
		Drivetrain:    textutil.Missing,
		Fuel:          textutil.Missing,
		Color:         textutil.Missing,
		TitleStatus:   textutil.Missing,
		Transmission:  textutil.Missing,
		BodyType:      textutil.Missing,
		Cylinders:     textutil.Missing,
		Description:   textutil.Missing,
		Status:        status,
		MissingFields: append([]Field{}, DetailFields...),
	}
}

// FetchDetail loads and extracts a single detail page. Missing fields are
// never an error, only fetch and parse failures are.
func (c *Client) FetchDetail(ctx context.Context, link string) (Detail, error) {
	ctx, span := tracer.Start(ctx, "FetchDetail")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	doc, _, err := c.fetchDocument(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load detail page")
		return Detail{}, err
	}

	detail := ExtractDetail(doc, link, c.selectors)
	for _, field := range detail.MissingFields {
		c.tel.ReportWarning("field_missing", "field", string(field), "url", link)
	}
	span.SetAttributes(attribute.Int("missing_fields", len(detail.MissingFields)))
	return detail, nil
}

// Crawl fetches every link in order, waiting on the client's Delayer before
// each request. It always returns exactly one Detail per link: pages that
// fail to load become sentinel records. A cancelled context marks the
// remaining links as fetch failures.
func (c *Client) Crawl(ctx context.Context, links []string) []Detail {
	ctx, span := tracer.Start(ctx, "Crawl")
	defer span.End()
	span.SetAttributes(attribute.Int("links", len(links)))

	details := make([]Detail, 0, len(links))
	missing := map[Field]int64{}
	failures := 0

	for i, link := range links {
		if link == "" {
			details = append(details, SentinelDetail(link, StatusNoLink))
			continue
		}

		err := c.delayer.Wait(ctx)
		if err != nil {
			slog.WarnContext(ctx, "crawl interrupted", "done", i, "total", len(links), "err", err)
			for _, rest := range links[i:] {
				details = append(details, SentinelDetail(rest, StatusFetchFailed))
			}
			failures += len(links) - i
			break
		}

		detail, err := c.FetchDetail(ctx, link)
		if err != nil {
			status := StatusFetchFailed
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				status = StatusParseFailed
			}
			c.tel.ReportBroken("detail_"+string(status), "url", link, "err", err.Error())
			detail = SentinelDetail(link, status)
			failures++
		} else {
			for _, field := range detail.MissingFields {
				missing[field]++
			}
		}

		slog.InfoContext(ctx, "crawled listing", "index", i+1, "total", len(links), "url", link, "status", detail.Status)
		details = append(details, detail)
	}

	for _, field := range DetailFields {
		c.tel.ReportCount("missing:"+string(field), missing[field])
	}
	c.tel.ReportCount("failed_pages", int64(failures))
	if failures > 0 {
		span.SetStatus(codes.Error, "some detail pages failed")
	}
	return details
}

// ExtractDetail reads every field from a parsed detail page. Each field is
// extracted independently, a missing field never affects another.
func ExtractDetail(doc *goquery.Document, link string, sel Selectors) Detail {
	detail := Detail{
		URL:    link,
		Status: StatusOK,
	}

	text := func(field Field) string {
		value, ok := attributeValue(doc, sel, field)
		if !ok {
			detail.MissingFields = append(detail.MissingFields, field)
		}
		return textutil.OrMissing(value, ok)
	}

	detail.Condition = text(FieldCondition)
	detail.Drivetrain = text(FieldDrivetrain)
	detail.Fuel = text(FieldFuel)
	detail.Color = text(FieldColor)
	detail.TitleStatus = text(FieldTitleStatus)
	detail.Transmission = text(FieldTransmission)
	detail.BodyType = text(FieldBodyType)
	detail.Cylinders = text(FieldCylinders)

	miles, ok := attributeValue(doc, sel, FieldMiles)
	if !ok {
		detail.MissingFields = append(detail.MissingFields, FieldMiles)
	}
	detail.MilesText = miles

	detail.PostedYear = postedYear(doc, sel)
	if !detail.PostedYear.Valid {
		detail.MissingFields = append(detail.MissingFields, FieldPostedYear)
	}

	title, ok := htmlutil.SelectionText(doc.Find(sel.DetailTitle))
	detail.Title = textutil.OrMissing(title, ok && title != "")

	body, ok := postingBody(doc, sel)
	detail.Description = textutil.OrMissing(body, ok)

	return detail
}

// attributeValue reads the link text inside the field's container, falling
// back to its value element.
func attributeValue(doc *goquery.Document, sel Selectors, field Field) (string, bool) {
	containerSel, ok := sel.Attributes[string(field)]
	if !ok || containerSel == "" {
		return "", false
	}
	container := doc.Find(containerSel).First()
	if container.Length() == 0 {
		return "", false
	}

	value, ok := htmlutil.SelectionText(container.Find("a"))
	if ok && value != "" {
		return value, true
	}
	if sel.AttributeValue == "" {
		return "", false
	}
	value, ok = htmlutil.SelectionText(container.Find(sel.AttributeValue))
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func postedYear(doc *goquery.Document, sel Selectors) sql.Null[int64] {
	if sel.PostedTime == "" {
		return sql.Null[int64]{}
	}
	node := doc.Find(sel.PostedTime).First()
	if node.Length() == 0 {
		return sql.Null[int64]{}
	}
	if datetime, ok := node.Attr("datetime"); ok {
		if year := textutil.FindYear(datetime); year.Valid {
			return year
		}
	}
	return textutil.FindYear(node.Text())
}

func postingBody(doc *goquery.Document, sel Selectors) (string, bool) {
	if sel.Body == "" {
		return "", false
	}
	region := doc.Find(sel.Body).First()
	if region.Length() == 0 {
		return "", false
	}
	body := textutil.NormalizeBody(htmlutil.GetText(region.Nodes[0]), sel.Boilerplate...)
	return strings.TrimSpace(body), true
}
