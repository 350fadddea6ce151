package textutil

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

// Missing is the placeholder stored in a text field that could not be
// extracted.
const Missing = "missing"

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeTitle collapses runs of whitespace and lower-cases the title.
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	title = whitespaceRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// Tokenize splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// BrandMatcher resolves a listing title to one entry of a fixed brand
// vocabulary.
type BrandMatcher struct {
	vocabulary map[string]string
	entries    []string
	// minimum Jaro-Winkler similarity for a fuzzy match, 0 disables it
	fuzzyThreshold float64
}

func NewBrandMatcher(brands []string, fuzzyThreshold float64) BrandMatcher {
	m := BrandMatcher{
		vocabulary:     make(map[string]string, len(brands)),
		fuzzyThreshold: fuzzyThreshold,
	}
	for _, b := range brands {
		key := strings.ToLower(strings.TrimSpace(b))
		if key == "" {
			continue
		}
		if _, exists := m.vocabulary[key]; exists {
			continue
		}
		m.vocabulary[key] = key
		m.entries = append(m.entries, key)
	}
	return m
}

// Match returns the first token of the title, in title order, that is in the
// vocabulary. When nothing matches exactly and fuzzy matching is enabled, the
// most similar vocabulary entry above the threshold is used. Otherwise the
// result is Missing.
func (m BrandMatcher) Match(title string) string {
	tokens := Tokenize(strings.ToLower(title))
	for _, tok := range tokens {
		if brand, ok := m.vocabulary[tok]; ok {
			return brand
		}
	}
	if m.fuzzyThreshold <= 0 {
		return Missing
	}

	best := Missing
	var bestScore float64
	for _, tok := range tokens {
		for _, entry := range m.entries {
			score := matchr.JaroWinkler(tok, entry, false)
			if score >= m.fuzzyThreshold && score > bestScore {
				bestScore = score
				best = entry
			}
		}
	}
	return best
}

// MatchBrand is a convenience for one-off exact matching.
func MatchBrand(title string, brands []string) string {
	return NewBrandMatcher(brands, 0).Match(title)
}

var yearRegex = regexp.MustCompile(`(?:19|20)\d\d`)

// FindYear returns the leftmost 19xx or 20xx substring as an integer.
func FindYear(text string) sql.Null[int64] {
	match := yearRegex.FindString(text)
	if match == "" {
		return sql.Null[int64]{}
	}
	year, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return sql.Null[int64]{}
	}
	return sql.Null[int64]{V: year, Valid: true}
}

var currencyFormatting = strings.NewReplacer("$", "", "€", "", "£", "", ",", "")

var decimalRegex = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// numericText strips currency symbols and thousands separators and returns
// the remainder only if it is exactly one number.
func numericText(text string) string {
	text = strings.TrimSpace(currencyFormatting.Replace(text))
	if !decimalRegex.MatchString(text) {
		return ""
	}
	return text
}

// ParseDecimal parses a price-like value such as "$12,500". Currency
// symbols and thousands separators are dropped, anything else around the
// number (words, units, a second number) yields an invalid value.
func ParseDecimal(text string) sql.Null[float64] {
	cleaned := numericText(text)
	if cleaned == "" {
		return sql.Null[float64]{}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return sql.Null[float64]{}
	}
	return sql.Null[float64]{V: v, Valid: true}
}

// ParseInt is ParseDecimal for integral fields, fractions are truncated.
// Values outside the int64 range are invalid.
func ParseInt(text string) sql.Null[int64] {
	cleaned := numericText(text)
	if cleaned == "" {
		return sql.Null[int64]{}
	}
	whole, _, _ := strings.Cut(cleaned, ".")
	v, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sql.Null[int64]{}
	}
	return sql.Null[int64]{V: v, Valid: true}
}

// BoilerplateQRCode is the UI label prepended to posting bodies.
const BoilerplateQRCode = "QR Code Link to This Post"

// NormalizeBody removes line breaks and the given boilerplate phrases from a
// posting body.
func NormalizeBody(body string, boilerplate ...string) string {
	body = strings.ReplaceAll(body, "\r", "")
	body = strings.ReplaceAll(body, "\n", "")
	for _, phrase := range boilerplate {
		if phrase == "" {
			continue
		}
		body = strings.ReplaceAll(body, phrase, "")
	}
	return strings.TrimSpace(body)
}

// OrMissing substitutes Missing for an extraction that did not succeed.
func OrMissing(value string, ok bool) string {
	if !ok {
		return Missing
	}
	return value
}
