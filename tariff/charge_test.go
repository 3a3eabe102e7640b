package tariff

import (
	"testing"

	"github.com/shopspring/decimal"
)

func tariffSlabs() []Slab {
	return []Slab{
		{ID: 1, LowerLimit: dec(0), UpperLimit: upper(10), Rate: decimal.RequireFromString("5"), SortOrder: 1, IsActive: true},
		{ID: 3, LowerLimit: dec(20), UpperLimit: upper(UnlimitedUpperLimit), Rate: decimal.RequireFromString("12.5"), SortOrder: 3, IsActive: true},
		{ID: 2, LowerLimit: dec(10), UpperLimit: upper(20), Rate: decimal.RequireFromString("8"), SortOrder: 2, IsActive: true},
		{ID: 4, LowerLimit: dec(0), UpperLimit: nil, Rate: decimal.RequireFromString("100"), SortOrder: 4, IsActive: false},
	}
}

func TestCalculateChargeTiered(t *testing.T) {
	charge, err := CalculateCharge(dec(25), tariffSlabs(), BillingModeTiered)
	if err != nil {
		t.Fatalf("CalculateCharge: %v", err)
	}
	// 10*5 + 10*8 + 5*12.5
	if !charge.Total.Equal(decimal.RequireFromString("192.5")) {
		t.Fatalf("expected total 192.5, got %s", charge.Total)
	}
	if len(charge.Lines) != 3 || charge.Lines[2].Range != "20 - Unlimited" {
		t.Fatalf("unexpected lines %+v", charge.Lines)
	}
}

func TestCalculateChargeThreshold(t *testing.T) {
	charge, err := CalculateCharge(dec(15), tariffSlabs(), BillingModeThreshold)
	if err != nil {
		t.Fatalf("CalculateCharge: %v", err)
	}
	if !charge.Total.Equal(dec(120)) || charge.Lines[0].SlabID != 2 {
		t.Fatalf("expected 15*8=120 from slab 2, got %+v", charge)
	}

	charge, err = CalculateCharge(dec(10), tariffSlabs(), BillingModeThreshold)
	if err != nil || charge.Lines[0].SlabID != 2 {
		t.Fatalf("boundary value must fall into the upper band, got %+v %v", charge, err)
	}
}

func TestCalculateChargeTopBoundMatchesAcrossModes(t *testing.T) {
	bounded := []Slab{
		{ID: 1, LowerLimit: dec(0), UpperLimit: upper(50), Rate: dec(10), IsActive: true},
		{ID: 2, LowerLimit: dec(50), UpperLimit: upper(100), Rate: dec(20), IsActive: true},
	}
	tiered, err := CalculateCharge(dec(100), bounded, BillingModeTiered)
	if err != nil || !tiered.Total.Equal(dec(1500)) {
		t.Fatalf("expected tiered total 1500, got %+v %v", tiered, err)
	}
	threshold, err := CalculateCharge(dec(100), bounded, BillingModeThreshold)
	if err != nil || len(threshold.Lines) != 1 || threshold.Lines[0].SlabID != 2 || !threshold.Total.Equal(dec(2000)) {
		t.Fatalf("expected the top band to bill 100 at 20, got %+v %v", threshold, err)
	}
}

func TestCalculateChargeErrors(t *testing.T) {
	if _, err := CalculateCharge(dec(-1), tariffSlabs(), BillingModeTiered); err != ErrNegativeConsumption {
		t.Fatalf("expected ErrNegativeConsumption, got %v", err)
	}
	if _, err := CalculateCharge(dec(1), nil, BillingModeTiered); err != ErrNoActiveSlabs {
		t.Fatalf("expected ErrNoActiveSlabs, got %v", err)
	}
	bounded := []Slab{{ID: 1, LowerLimit: dec(0), UpperLimit: upper(10), Rate: dec(1), IsActive: true}}
	if _, err := CalculateCharge(dec(11), bounded, BillingModeTiered); err == nil {
		t.Fatalf("expected error above the highest slab")
	}
	if _, err := CalculateCharge(dec(11), bounded, BillingModeThreshold); err == nil {
		t.Fatalf("expected error above the highest slab")
	}
	gapped := []Slab{
		{ID: 1, LowerLimit: dec(0), UpperLimit: upper(10), Rate: dec(1), IsActive: true},
		{ID: 2, LowerLimit: dec(20), UpperLimit: upper(30), Rate: dec(2), IsActive: true},
	}
	if _, err := CalculateCharge(dec(15), gapped, BillingModeThreshold); err == nil {
		t.Fatalf("expected error when no band covers the consumption")
	}
	if _, err := CalculateCharge(dec(1), bounded, BillingMode("Flat")); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestFormatRange(t *testing.T) {
	if got := FormatRange(dec(0), upper(50)); got != "0 - 50" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatRange(decimal.RequireFromString("100.5"), nil); got != "100.5 - Unlimited" {
		t.Fatalf("unexpected %q", got)
	}
}
