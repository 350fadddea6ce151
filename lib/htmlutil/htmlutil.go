package htmlutil

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

var tracer = otel.Tracer("listingscraper.lib.htmlutil")

// ParseDocument decodes body according to the charset declared in
// contentType (or sniffed from the markup) and parses it.
func ParseDocument(body []byte, contentType string) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(reader)
}

// ParseDocumentReader is ParseDocument for a stream.
func ParseDocumentReader(r io.Reader, contentType string) (*goquery.Document, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseDocument(body, contentType)
}

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func printableOrSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	if !unicode.IsPrint(r) {
		return -1
	}
	return r
}

// CleanText drops non-printable characters and collapses every run of
// whitespace (including non-breaking spaces) to a single space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(strings.Map(printableOrSpace, s)), " ")
}

// SelectionText is the cleaned text of the first node in the selection.
// The boolean is false when the selection is empty.
func SelectionText(sel *goquery.Selection) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	return CleanText(GetText(sel.Nodes[0])), true
}

type Anchor struct {
	Name string
	Href string
}

// FirstAnchor returns the first a[href] inside sel, with the href resolved
// against base when base is not nil.
func FirstAnchor(ctx context.Context, sel *goquery.Selection, base *url.URL) (Anchor, bool) {
	anchors := GetAnchors(ctx, sel.Find("a[href]").First(), base)
	if len(anchors) == 0 {
		return Anchor{}, false
	}
	return anchors[0], true
}

func GetAnchors(ctx context.Context, sel *goquery.Selection, base *url.URL) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = strings.TrimSpace(a.Val)
				break
			}
		}
		if href == "" {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		name := CleanText(GetText(n))
		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}
