package textutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

var brands = []string{"toyota", "Honda", "ford", "chevrolet", "bmw"}

func TestNormalizeTitle(t *testing.T) {
	require.Equal(t, "2015 honda civic ex", NormalizeTitle("  2015 Honda\n\tCivic   EX "))
	require.Equal(t, "", NormalizeTitle("   "))
}

func TestMatchBrand(t *testing.T) {
	testCases := []struct {
		title    string
		expected string
	}{
		{title: "2015 honda civic ex", expected: "honda"},
		{title: "clean car no issues", expected: Missing},
		// earliest token in the title wins, not vocabulary order
		{title: "ford engine swapped into a toyota", expected: "ford"},
		{title: "toyota with ford parts", expected: "toyota"},
		{title: "BMW 328i", expected: "bmw"},
		// substrings of a token do not count
		{title: "hondas for sale", expected: Missing},
		{title: "", expected: Missing},
	}

	for _, test := range testCases {
		t.Run(test.title, func(t *testing.T) {
			require.Equal(t, test.expected, MatchBrand(test.title, brands))
		})
	}
}

func TestBrandMatcherFuzzy(t *testing.T) {
	exact := NewBrandMatcher(brands, 0)
	require.Equal(t, Missing, exact.Match("2009 chevrolett impala"))

	fuzzy := NewBrandMatcher(brands, 0.9)
	require.Equal(t, "chevrolet", fuzzy.Match("2009 chevrolett impala"))
	require.Equal(t, Missing, fuzzy.Match("clean car no issues"))
	// exact matches still take precedence
	require.Equal(t, "ford", fuzzy.Match("chevrolett ford"))
}

func TestNewBrandMatcherIgnoresBlankAndDuplicates(t *testing.T) {
	m := NewBrandMatcher([]string{"", " Ford ", "ford"}, 0)
	require.Equal(t, []string{"ford"}, m.entries)
	require.Equal(t, "ford", m.Match("old ford truck"))
}

func TestFindYear(t *testing.T) {
	testCases := []struct {
		text     string
		expected sql.Null[int64]
	}{
		{text: "2015 honda civic ex", expected: sql.Null[int64]{V: 2015, Valid: true}},
		{text: "honda civic 1999 or 2004", expected: sql.Null[int64]{V: 1999, Valid: true}},
		{text: "clean car no issues", expected: sql.Null[int64]{}},
		{text: "1800 miles", expected: sql.Null[int64]{}},
		{text: "model 20", expected: sql.Null[int64]{}},
	}

	for _, test := range testCases {
		t.Run(test.text, func(t *testing.T) {
			require.Equal(t, test.expected, FindYear(test.text))
		})
	}
}

func TestParseDecimal(t *testing.T) {
	testCases := []struct {
		text     string
		expected sql.Null[float64]
	}{
		{text: "$12,500", expected: sql.Null[float64]{V: 12500, Valid: true}},
		{text: "45,231", expected: sql.Null[float64]{V: 45231, Valid: true}},
		{text: "$9.99", expected: sql.Null[float64]{V: 9.99, Valid: true}},
		{text: "-3", expected: sql.Null[float64]{V: -3, Valid: true}},
		{text: "", expected: sql.Null[float64]{}},
		{text: "call for price", expected: sql.Null[float64]{}},
		{text: "1.2.3", expected: sql.Null[float64]{}},
		{text: "2-door", expected: sql.Null[float64]{}},
		{text: " $ 7,000 ", expected: sql.Null[float64]{V: 7000, Valid: true}},
		{text: "$12,500 obo, was $15,000", expected: sql.Null[float64]{}},
		{text: "2 owners 45k", expected: sql.Null[float64]{}},
		{text: "100k", expected: sql.Null[float64]{}},
		{text: "-", expected: sql.Null[float64]{}},
		{text: ".5", expected: sql.Null[float64]{}},
	}

	for _, test := range testCases {
		t.Run(test.text, func(t *testing.T) {
			require.Equal(t, test.expected, ParseDecimal(test.text))
		})
	}
}

func TestParseInt(t *testing.T) {
	require.Equal(t, sql.Null[int64]{V: 45231, Valid: true}, ParseInt("45,231"))
	require.Equal(t, sql.Null[int64]{V: 12, Valid: true}, ParseInt("12.9"))
	require.Equal(t, sql.Null[int64]{}, ParseInt(""))
	require.Equal(t, sql.Null[int64]{}, ParseInt("99999999999999999999999"))
	require.Equal(t, sql.Null[int64]{}, ParseInt("120k miles"))
	require.Equal(t, sql.Null[int64]{V: -4, Valid: true}, ParseInt("-4"))
}

func TestNormalizeBody(t *testing.T) {
	body := "\n\nQR Code Link to This Post\n\n\nRuns great.\nNew tires. "
	require.Equal(t, "Runs great.New tires.", NormalizeBody(body, BoilerplateQRCode))
	require.Equal(t, "plain", NormalizeBody("plain", BoilerplateQRCode))
}

func TestOrMissing(t *testing.T) {
	require.Equal(t, "gas", OrMissing("gas", true))
	require.Equal(t, Missing, OrMissing("", false))
}
