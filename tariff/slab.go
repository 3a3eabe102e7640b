package tariff

import (
	"github.com/shopspring/decimal"
)

// UnlimitedUpperLimit is the stored stand-in for "no upper limit".
// Any upper limit at or above it is treated as +infinity.
const UnlimitedUpperLimit = 99999999

var unlimitedUpper = decimal.NewFromInt(UnlimitedUpperLimit)

// Slab is one consumption band of a tariff configuration.
// A nil UpperLimit means the band is open ended.
type Slab struct {
	ID         int              `json:"id"`
	LowerLimit decimal.Decimal  `json:"lowerLimit"`
	UpperLimit *decimal.Decimal `json:"upperLimit"`
	Rate       decimal.Decimal  `json:"rate"`
	SortOrder  int              `json:"sortOrder"`
	IsActive   bool             `json:"isActive"`
}

// IsUnlimited reports whether an upper limit means "no upper limit".
func IsUnlimited(upper *decimal.Decimal) bool {
	return upper == nil || upper.GreaterThanOrEqual(unlimitedUpper)
}

// PersistedUpperLimit returns the value stored for an upper limit.
func PersistedUpperLimit(upper *decimal.Decimal) decimal.Decimal {
	if IsUnlimited(upper) {
		return unlimitedUpper
	}
	return *upper
}

// UpperLimitFromPersisted maps a stored upper limit back, sentinel to nil.
func UpperLimitFromPersisted(stored decimal.Decimal) *decimal.Decimal {
	if stored.GreaterThanOrEqual(unlimitedUpper) {
		return nil
	}
	return &stored
}

func (s Slab) Unlimited() bool {
	return IsUnlimited(s.UpperLimit)
}

func (s Slab) Range() string {
	return FormatRange(s.LowerLimit, s.UpperLimit)
}

// Contains reports whether v lies in [lower, upper).
func (s Slab) Contains(v decimal.Decimal) bool {
	if v.LessThan(s.LowerLimit) {
		return false
	}
	return s.Unlimited() || v.LessThan(*s.UpperLimit)
}

// rangesOverlap is the half-open overlap test lower1 < upper2 && lower2 < upper1.
func rangesOverlap(lower1 decimal.Decimal, upper1 *decimal.Decimal, lower2 decimal.Decimal, upper2 *decimal.Decimal) bool {
	return below(lower1, upper2) && below(lower2, upper1)
}

func below(v decimal.Decimal, upper *decimal.Decimal) bool {
	return IsUnlimited(upper) || v.LessThan(*upper)
}

func activeSlabs(slabs []Slab) []Slab {
	var active []Slab
	for _, s := range slabs {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active
}
