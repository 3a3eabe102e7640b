package tariff

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type BillingMode string

const (
	// BillingModeTiered bills each band's share of the consumption at that band's rate.
	BillingModeTiered BillingMode = "Tiered"
	// BillingModeThreshold bills the whole consumption at the rate of the band containing it.
	BillingModeThreshold BillingMode = "Threshold"
)

func (m BillingMode) IsValid() bool {
	return m == BillingModeTiered || m == BillingModeThreshold
}

type ChargeLine struct {
	SlabID int             `json:"slabId"`
	Range  string          `json:"range"`
	Volume decimal.Decimal `json:"volume"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type Charge struct {
	Consumption decimal.Decimal `json:"consumption"`
	Mode        BillingMode     `json:"mode"`
	Lines       []ChargeLine    `json:"lines"`
	Total       decimal.Decimal `json:"total"`
}

var (
	ErrNegativeConsumption = errors.New("consumption must be 0 or greater")
	ErrNoActiveSlabs       = errors.New("tariff configuration has no active slabs")
)

// CalculateCharge prices a consumption against the active slabs of a configuration.
// Amounts are rounded to 2 places per line.
func CalculateCharge(consumption decimal.Decimal, slabs []Slab, mode BillingMode) (*Charge, error) {
	if consumption.IsNegative() {
		return nil, ErrNegativeConsumption
	}
	active := activeSlabs(slabs)
	if len(active) == 0 {
		return nil, ErrNoActiveSlabs
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].LowerLimit.LessThan(active[j].LowerLimit)
	})

	// both modes accept a consumption equal to the upper limit of the highest slab
	last := active[len(active)-1]
	if mode.IsValid() && !last.Unlimited() && consumption.GreaterThan(*last.UpperLimit) {
		return nil, fmt.Errorf("consumption %s exceeds the highest slab %s", consumption, last.Range())
	}

	charge := &Charge{Consumption: consumption, Mode: mode, Lines: []ChargeLine{}, Total: decimal.Zero}
	switch mode {
	case BillingModeTiered:
		for _, s := range active {
			if !consumption.GreaterThan(s.LowerLimit) {
				break
			}
			top := consumption
			if !s.Unlimited() && s.UpperLimit.LessThan(top) {
				top = *s.UpperLimit
			}
			charge.addLine(s, top.Sub(s.LowerLimit))
		}
	case BillingModeThreshold:
		var band *Slab
		for i := range active {
			if active[i].Contains(consumption) {
				band = &active[i]
				break
			}
		}
		if band == nil && !last.Unlimited() && consumption.Equal(*last.UpperLimit) {
			band = &last
		}
		if band == nil {
			return nil, fmt.Errorf("no active slab covers consumption %s", consumption)
		}
		charge.addLine(*band, consumption)
	default:
		return nil, fmt.Errorf("unknown billing mode %q", mode)
	}
	return charge, nil
}

func (c *Charge) addLine(s Slab, volume decimal.Decimal) {
	amount := volume.Mul(s.Rate).Round(2)
	c.Lines = append(c.Lines, ChargeLine{
		SlabID: s.ID,
		Range:  s.Range(),
		Volume: volume,
		Rate:   s.Rate,
		Amount: amount,
	})
	c.Total = c.Total.Add(amount)
}
