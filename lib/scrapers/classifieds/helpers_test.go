package classifieds

import (
	"listingscraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

func goqueryDoc(markup string) (*goquery.Document, error) {
	return htmlutil.ParseDocument([]byte(markup), "text/html; charset=utf-8")
}
