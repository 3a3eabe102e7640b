package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// rawValue parses a raw attribute. Missing, unparseable or negative values count as 0.
func rawValue(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Normalize recomputes percentages and geoMean for a whole ruleset batch.
// Each attribute is scaled against the batch maximum; the input slice is not modified.
func Normalize(records []Record) []Record {
	var maxima [len(attributeKeys)]decimal.Decimal
	for _, r := range records {
		for _, a := range Attributes {
			if v := rawValue(r.Raw.Get(a)); v.GreaterThan(maxima[a]) {
				maxima[a] = v
			}
		}
	}

	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
		out[i].Percentages = Values{}

		product := 1.0
		positive := 0
		for _, a := range Attributes {
			pct := decimal.Zero
			if maxima[a].IsPositive() {
				pct = rawValue(r.Raw.Get(a)).Div(maxima[a]).Mul(hundred)
			}
			fixed := pct.StringFixed(2)
			out[i].Percentages.Set(a, fixed)

			ratio, _ := strconv.ParseFloat(fixed, 64)
			ratio /= 100
			if ratio > 0 {
				product *= ratio
				positive++
			}
		}

		geoMean := 0.0
		if positive > 0 {
			geoMean = math.Pow(product, 1/float64(positive))
		}
		out[i].GeoMean = strconv.FormatFloat(geoMean, 'f', 6, 64)
	}
	return out
}
