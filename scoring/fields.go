package scoring

import (
	"regexp"
	"strings"
)

// Attribute is one of the seven raw scoring values carried per area.
type Attribute int

const (
	LandHomeRate Attribute = iota
	LandRate
	LandTaxRate
	BuildingTaxRateUpto120sqm
	BuildingTaxRateUpto200sqm
	BuildingTaxRateAbove200sqm
	HighIncomeGroupConnectionPercentage
)

// Attributes lists every scoring attribute in column order.
var Attributes = []Attribute{
	LandHomeRate,
	LandRate,
	LandTaxRate,
	BuildingTaxRateUpto120sqm,
	BuildingTaxRateUpto200sqm,
	BuildingTaxRateAbove200sqm,
	HighIncomeGroupConnectionPercentage,
}

var attributeKeys = [...]string{
	"landHomeRate",
	"landRate",
	"landTaxRate",
	"buildingTaxRateUpto120sqm",
	"buildingTaxRateUpto200sqm",
	"buildingTaxRateAbove200sqm",
	"highIncomeGroupConnectionPercentage",
}

var attributeLabels = [...]string{
	"Land Home Rate (BDT/sqm)",
	"Land Rate (BDT/sqm)",
	"Land Tax Rate (%)",
	"Building Tax Rate Upto 120 sqm (%)",
	"Building Tax Rate Upto 200 sqm (%)",
	"Building Tax Rate Above 200 sqm (%)",
	"High Income Group Connection (%)",
}

// Key is the canonical camelCase field name.
func (a Attribute) Key() string {
	return attributeKeys[a]
}

// Label is the human readable column header used in templates and exports.
func (a Attribute) Label() string {
	return attributeLabels[a]
}

func (a Attribute) String() string {
	return a.Key()
}

// canonical keys of the non numeric columns
const (
	keyAreaId          = "areaId"
	keyAreaName        = "areaName"
	keyZone            = "zone"
	keyCityCorporation = "cityCorporation"
)

const (
	labelAreaName        = "Area Name"
	labelZone            = "Zone (reference only)"
	labelCityCorporation = "City Corporation (reference only)"
)

// headerSynonyms maps a compacted lowercase header to its canonical key.
var headerSynonyms = map[string]string{
	"areaid": keyAreaId,
	"id":     keyAreaId,
	"zoneid": keyAreaId,

	"areaname": keyAreaName,
	"area":     keyAreaName,
	"name":     keyAreaName,
	"zonename": keyAreaName,
	"location": keyAreaName,

	"zone":             keyZone,
	"citycorporation":  keyCityCorporation,
	"city":             keyCityCorporation,
	"citycorp":         keyCityCorporation,
	"citycorporations": keyCityCorporation,

	"landhomerate":  "landHomeRate",
	"homerate":      "landHomeRate",
	"landhomeprice": "landHomeRate",

	"landrate":  "landRate",
	"landprice": "landRate",

	"landtaxrate": "landTaxRate",
	"landtax":     "landTaxRate",

	"buildingtaxrateupto120sqm":  "buildingTaxRateUpto120sqm",
	"buildingtaxrateupto120":     "buildingTaxRateUpto120sqm",
	"buildingtaxrateupto120sqm%": "buildingTaxRateUpto120sqm",
	"buildingtaxupto120sqm":      "buildingTaxRateUpto120sqm",
	"buildingtaxrate120sqm":      "buildingTaxRateUpto120sqm",

	"buildingtaxrateupto200sqm": "buildingTaxRateUpto200sqm",
	"buildingtaxrateupto200":    "buildingTaxRateUpto200sqm",
	"buildingtaxupto200sqm":     "buildingTaxRateUpto200sqm",
	"buildingtaxrate200sqm":     "buildingTaxRateUpto200sqm",

	"buildingtaxrateabove200sqm": "buildingTaxRateAbove200sqm",
	"buildingtaxrateabove200":    "buildingTaxRateAbove200sqm",
	"buildingtaxabove200sqm":     "buildingTaxRateAbove200sqm",

	"highincomegroupconnectionpercentage": "highIncomeGroupConnectionPercentage",
	"highincomegroupconnection":           "highIncomeGroupConnectionPercentage",
	"highincomegroupconnection%":          "highIncomeGroupConnectionPercentage",
	"highincomegroup":                     "highIncomeGroupConnectionPercentage",
	"higconnection":                       "highIncomeGroupConnectionPercentage",
	"higconnectionpercentage":             "highIncomeGroupConnectionPercentage",
}

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)
	headerNoise   = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "", "\t", "")
)

func compactHeader(s string) string {
	return headerNoise.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// NormalizeHeader resolves a header cell to its canonical key.
// Unknown headers fall back to their lowercase text.
func NormalizeHeader(header string) string {
	if key, ok := headerSynonyms[compactHeader(header)]; ok {
		return key
	}
	stripped := parenthetical.ReplaceAllString(header, "")
	if key, ok := headerSynonyms[compactHeader(stripped)]; ok {
		return key
	}
	return strings.ToLower(strings.TrimSpace(header))
}
