package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := ParseDocument([]byte(markup), "text/html; charset=utf-8")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestParseDocumentCharset(t *testing.T) {
	// "café" in latin-1
	body := []byte("<html><body><p>caf\xe9</p></body></html>")
	doc, err := ParseDocument(body, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	require.Equal(t, "café", doc.Find("p").Text())
}

func TestParseDocumentReader(t *testing.T) {
	doc, err := ParseDocumentReader(strings.NewReader("<p>hello</p>"), "")
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Find("p").Text())
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a \n\n b\t\tc  "))
	require.Equal(t, "", CleanText("\n\t "))
	require.Equal(t, "2015 Honda Civic", CleanText("2015\u00a0Honda Civic"))
	require.Equal(t, "trailing", CleanText("trailing\r\f"))
	require.Equal(t, "zero width", CleanText("zero\u200b width"))
}

func TestSelectionText(t *testing.T) {
	doc := mustParse(t, `<div><span class="v"> 45,231 </span><span class="v">second</span></div>`)

	text, ok := SelectionText(doc.Find("span.v"))
	require.True(t, ok)
	require.Equal(t, "45,231", text)

	_, ok = SelectionText(doc.Find("span.nothing"))
	require.False(t, ok)
}

func TestFirstAnchor(t *testing.T) {
	base, err := url.Parse("https://example.org/search/cta")
	if err != nil {
		t.Fatal(err)
	}
	doc := mustParse(t, `
		<li class="row">
			<a>no href</a>
			<a href="/cto/d/first/1.html"> First
				car </a>
			<a href="https://other.org/second">Second</a>
		</li>
		<li class="empty"><span>no links</span></li>
	`)

	anchor, ok := FirstAnchor(context.Background(), doc.Find("li.row"), base)
	require.True(t, ok)
	require.Equal(t, "https://example.org/cto/d/first/1.html", anchor.Href)
	require.Equal(t, "First car", anchor.Name)

	_, ok = FirstAnchor(context.Background(), doc.Find("li.empty"), base)
	require.False(t, ok)
}

func TestGetAnchorsWithoutBase(t *testing.T) {
	doc := mustParse(t, `<a href="/a">A</a><a href="">skip</a><a href="b">B</a>`)
	anchors := GetAnchors(context.Background(), doc.Find("a"), nil)
	require.Equal(t, []Anchor{
		{Name: "A", Href: "/a"},
		{Name: "B", Href: "b"},
	}, anchors)
}
