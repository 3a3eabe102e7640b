package tariff

import (
	"github.com/shopspring/decimal"
)

// FormatRange renders a band as "0 - 50" or "100 - Unlimited".
func FormatRange(lower decimal.Decimal, upper *decimal.Decimal) string {
	if IsUnlimited(upper) {
		return lower.String() + " - Unlimited"
	}
	return lower.String() + " - " + upper.String()
}
