package listingtable

import (
	"database/sql"
	"log/slog"
	"strconv"

	"listingscraper/lib/scrapers/classifieds"
	"listingscraper/lib/textutil"
)

// Record is one listing joined with its detail page.
type Record struct {
	ID          int
	Title       string
	Price       sql.Null[float64]
	Year        sql.Null[int64]
	Age         sql.Null[int64]
	Brand       string
	Link        string
	DetailTitle string

	Condition    string
	Drivetrain   string
	Fuel         string
	Color        string
	TitleStatus  string
	Transmission string
	BodyType     string
	Cylinders    string
	Miles        sql.Null[int64]
	PostedYear   sql.Null[int64]

	Status      string
	Description string
}

// Join pairs every listing with the detail crawled from its link. Details
// are matched by URL, so a reordered or partial detail slice cannot shift
// rows. Listings without a link, or whose link was not crawled, get a
// sentinel detail. Output order follows listings.
func Join(listings []classifieds.Listing, details []classifieds.Detail, referenceYear int) []Record {
	byURL := make(map[string]classifieds.Detail, len(details))
	for _, d := range details {
		if d.URL == "" {
			continue
		}
		if _, exists := byURL[d.URL]; !exists {
			byURL[d.URL] = d
		}
	}

	records := make([]Record, 0, len(listings))
	for _, l := range listings {
		detail, ok := byURL[l.Link]
		switch {
		case !l.HasLink:
			detail = classifieds.SentinelDetail("", classifieds.StatusNoLink)
		case !ok:
			slog.Warn("no detail crawled for listing", "id", l.ID, "link", l.Link)
			detail = classifieds.SentinelDetail(l.Link, classifieds.StatusFetchFailed)
		}
		records = append(records, NewRecord(l, detail, referenceYear))
	}
	return records
}

// NewRecord coerces the numeric text fields and derives age.
func NewRecord(l classifieds.Listing, d classifieds.Detail, referenceYear int) Record {
	r := Record{
		ID:           l.ID,
		Title:        l.Title,
		Price:        textutil.ParseDecimal(l.PriceText),
		Year:         l.Year,
		Brand:        l.Brand,
		Link:         l.Link,
		DetailTitle:  d.Title,
		Condition:    d.Condition,
		Drivetrain:   d.Drivetrain,
		Fuel:         d.Fuel,
		Color:        d.Color,
		TitleStatus:  d.TitleStatus,
		Transmission: d.Transmission,
		BodyType:     d.BodyType,
		Cylinders:    d.Cylinders,
		Miles:        textutil.ParseInt(d.MilesText),
		PostedYear:   d.PostedYear,
		Status:       string(d.Status),
		Description:  d.Description,
	}
	if r.Link == "" {
		r.Link = textutil.Missing
	}
	r.Age = Age(r.Year, referenceYear)
	return r
}

// Age is referenceYear minus year, absent when year is.
func Age(year sql.Null[int64], referenceYear int) sql.Null[int64] {
	if !year.Valid {
		return sql.Null[int64]{}
	}
	return sql.Null[int64]{V: int64(referenceYear) - year.V, Valid: true}
}

func formatFloat(v sql.Null[float64]) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

func formatInt(v sql.Null[int64]) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.V, 10)
}

func parseFloatCell(cell string) (sql.Null[float64], error) {
	if cell == "" {
		return sql.Null[float64]{}, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return sql.Null[float64]{}, err
	}
	return sql.Null[float64]{V: v, Valid: true}, nil
}

func parseIntCell(cell string) (sql.Null[int64], error) {
	if cell == "" {
		return sql.Null[int64]{}, nil
	}
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return sql.Null[int64]{}, err
	}
	return sql.Null[int64]{V: v, Valid: true}, nil
}
