package classifieds

// Field names a detail-page attribute.
type Field string

const (
	FieldCondition    Field = "condition"
	FieldDrivetrain   Field = "drivetrain"
	FieldFuel         Field = "fuel"
	FieldColor        Field = "color"
	FieldTitleStatus  Field = "title_status"
	FieldTransmission Field = "transmission"
	FieldBodyType     Field = "body_type"
	FieldCylinders    Field = "cylinders"
	FieldMiles        Field = "miles"
	FieldPostedYear   Field = "posted_year"
)

// AttributeFields are the fields read from attribute containers, in output
// order. FieldPostedYear is read from the posting timestamp instead.
var AttributeFields = []Field{
	FieldCondition,
	FieldDrivetrain,
	FieldFuel,
	FieldColor,
	FieldTitleStatus,
	FieldTransmission,
	FieldBodyType,
	FieldCylinders,
	FieldMiles,
}

// DetailFields is every named detail attribute.
var DetailFields = append(append([]Field{}, AttributeFields...), FieldPostedYear)

// Selectors are the CSS markers the scraper depends on. The site owns this
// markup, when it changes fields degrade to missing and get reported.
type Selectors struct {
	// search results page
	ListingBlock string `json:"listing_block"`
	ListingTitle string `json:"listing_title"`
	ListingPrice string `json:"listing_price"`

	// detail page
	DetailTitle    string            `json:"detail_title"`
	Attributes     map[string]string `json:"attributes"`
	AttributeValue string            `json:"attribute_value"`
	PostedTime     string            `json:"posted_time"`
	Body           string            `json:"body"`
	Boilerplate    []string          `json:"boilerplate"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		ListingBlock: "li.cl-static-search-result, li.result-row",
		ListingTitle: ".title, .result-title",
		ListingPrice: ".price, .result-price",

		DetailTitle: "#titletextonly",
		Attributes: map[string]string{
			string(FieldCondition):    ".attr.condition",
			string(FieldDrivetrain):   ".attr.auto_drivetrain",
			string(FieldFuel):         ".attr.auto_fuel_type",
			string(FieldColor):        ".attr.auto_paint",
			string(FieldTitleStatus):  ".attr.auto_title_status",
			string(FieldTransmission): ".attr.auto_transmission",
			string(FieldBodyType):     ".attr.auto_bodytype",
			string(FieldCylinders):    ".attr.auto_cylinders",
			string(FieldMiles):        ".attr.auto_miles",
		},
		AttributeValue: ".valu",
		PostedTime:     ".postinginfos time.date, .postinginfo time",
		Body:           "section#postingbody",
		Boilerplate:    []string{"QR Code Link to This Post"},
	}
}
