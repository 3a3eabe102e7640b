package scoring

import (
	"encoding/csv"
	"strings"
)

// Example row of the downloadable template. Registering ExampleAreaName makes the
// template import cleanly.
const (
	ExampleAreaName        = "Gulshan"
	ExampleZone            = "Zone 3"
	ExampleCityCorporation = "Dhaka North City Corporation"
)

var exampleValues = Values{
	LandHomeRate:                        "250000",
	LandRate:                            "180000",
	LandTaxRate:                         "2.5",
	BuildingTaxRateUpto120sqm:           "1.5",
	BuildingTaxRateUpto200sqm:           "2",
	BuildingTaxRateAbove200sqm:          "3",
	HighIncomeGroupConnectionPercentage: "35",
}

// TemplateHeaders returns the human readable header row of the import template.
func TemplateHeaders() []string {
	headers := []string{labelAreaName, labelZone, labelCityCorporation}
	for _, a := range Attributes {
		headers = append(headers, a.Label())
	}
	return headers
}

// GenerateCSVTemplate returns the header row and one example row as CSV text.
func GenerateCSVTemplate() string {
	example := []string{ExampleAreaName, ExampleZone, ExampleCityCorporation}
	for _, a := range Attributes {
		example = append(example, exampleValues.Get(a))
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	// writes to a strings.Builder cannot fail
	_ = w.Write(TemplateHeaders())
	_ = w.Write(example)
	w.Flush()
	return b.String()
}
