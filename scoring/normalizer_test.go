package scoring

import (
	"reflect"
	"strconv"
	"testing"
)

func uniformValues(v string) Values {
	var values Values
	for _, a := range Attributes {
		values.Set(a, v)
	}
	return values
}

func TestNormalizePercentagesAgainstBatchMax(t *testing.T) {
	records := []Record{
		{AreaId: 1, Raw: uniformValues("50")},
		{AreaId: 2, Raw: uniformValues("200")},
		{AreaId: 3, Raw: uniformValues("100")},
	}
	out := Normalize(records)

	expected := []string{"25.00", "100.00", "50.00"}
	for i, r := range out {
		for _, a := range Attributes {
			if got := r.Percentages.Get(a); got != expected[i] {
				t.Fatalf("record %d %s expected %s, got %s", i, a, expected[i], got)
			}
		}
	}
	if out[1].GeoMean != "1.000000" {
		t.Fatalf("expected geoMean 1.000000 for the max record, got %s", out[1].GeoMean)
	}
	if out[0].GeoMean != "0.250000" {
		t.Fatalf("expected geoMean 0.250000, got %s", out[0].GeoMean)
	}
}

func TestNormalizeGeoMeanSkipsZeroRatios(t *testing.T) {
	a := Record{AreaId: 1, Raw: uniformValues("0")}
	a.Raw.LandRate = "10"
	a.Raw.LandTaxRate = "10"
	b := Record{AreaId: 2, Raw: uniformValues("10")}
	b.Raw.LandRate = "40"

	out := Normalize([]Record{a, b})
	// a: landRate 25%, landTaxRate 100%, everything else 0
	if out[0].Percentages.LandRate != "25.00" || out[0].Percentages.LandTaxRate != "100.00" {
		t.Fatalf("unexpected percentages %+v", out[0].Percentages)
	}
	if out[0].GeoMean != "0.500000" {
		t.Fatalf("expected sqrt(0.25*1) = 0.500000, got %s", out[0].GeoMean)
	}
}

func TestNormalizeZeroAndUnparseable(t *testing.T) {
	records := []Record{
		{AreaId: 1, Raw: uniformValues("0")},
		{AreaId: 2, Raw: uniformValues("n/a")},
		{AreaId: 3},
	}
	for _, r := range Normalize(records) {
		for _, a := range Attributes {
			if got := r.Percentages.Get(a); got != "0.00" {
				t.Fatalf("expected 0.00 when batch max is 0, got %s", got)
			}
		}
		if r.GeoMean != "0.000000" {
			t.Fatalf("expected geoMean 0 when no ratio is positive, got %s", r.GeoMean)
		}
	}
}

func TestNormalizeSingleRecordBatch(t *testing.T) {
	out := Normalize([]Record{{AreaId: 9, Raw: uniformValues("12.5")}})
	if out[0].Percentages.LandHomeRate != "100.00" || out[0].GeoMean != "1.000000" {
		t.Fatalf("single record batch must still be computed, got %+v", out[0])
	}
}

func TestNormalizeBoundsAndPurity(t *testing.T) {
	records := []Record{
		{AreaId: 1, Raw: Values{"10", "3", "7.25", "0", "1", "99", "0.5"}},
		{AreaId: 2, Raw: Values{"1", "30", "7.25", "4", "0", "33", "12"}},
		{AreaId: 3, Raw: Values{"5", "15", "2", "2", "8", "0", "6"}},
	}
	snapshot := make([]Record, len(records))
	copy(snapshot, records)

	first := Normalize(records)
	second := Normalize(records)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalizer must be deterministic")
	}
	if !reflect.DeepEqual(records, snapshot) {
		t.Fatalf("normalizer must not mutate its input")
	}

	for _, r := range first {
		for _, a := range Attributes {
			pct, err := strconv.ParseFloat(r.Percentages.Get(a), 64)
			if err != nil || pct < 0 || pct > 100 {
				t.Fatalf("percentage out of range: %q", r.Percentages.Get(a))
			}
		}
		g, err := strconv.ParseFloat(r.GeoMean, 64)
		if err != nil || g < 0 || g > 1 {
			t.Fatalf("geoMean out of range: %q", r.GeoMean)
		}
	}
	// the holder of each attribute max scores exactly 100
	if first[0].Percentages.LandHomeRate != "100.00" || first[1].Percentages.LandRate != "100.00" ||
		first[0].Percentages.LandTaxRate != "100.00" || first[1].Percentages.LandTaxRate != "100.00" {
		t.Fatalf("expected 100.00 for batch maxima, got %+v / %+v", first[0].Percentages, first[1].Percentages)
	}
}

func TestFindDuplicateAreas(t *testing.T) {
	records := []Record{
		{AreaId: 1, AreaName: "Gulshan"},
		{AreaId: 2, AreaName: "Banani"},
		{AreaId: 1, AreaName: "gulshan"},
		{AreaId: 3},
		{AreaId: 3},
	}
	dups := FindDuplicateAreas(records)
	expected := []DuplicateArea{
		{AreaId: 1, AreaName: "Gulshan", Count: 2},
		{AreaId: 3, AreaName: "", Count: 2},
	}
	if !reflect.DeepEqual(dups, expected) {
		t.Fatalf("expected %+v, got %+v", expected, dups)
	}

	err := CheckDuplicateAreas(records)
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err.Error() != "duplicate area in scoring parameters: Gulshan (2 rows), area #3 (2 rows)" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if CheckDuplicateAreas(records[:2]) != nil {
		t.Fatalf("expected no error without duplicates")
	}
}

func TestDuplicateAreaFromParsedCSV(t *testing.T) {
	content := fullHeader + "\nBanani,1,1,1,1,1,1,1\nDhanmondi,1,1,1,1,1,1,1\nBANANI,2,2,2,2,2,2,2\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if !result.Success {
		t.Fatalf("parse failed: %v", result.Errors)
	}
	err := CheckDuplicateAreas(result.Data)
	if err == nil {
		t.Fatalf("expected duplicate area rejection")
	}
	if got := err.Error(); got != "duplicate area in scoring parameters: Banani (2 rows)" {
		t.Fatalf("expected error naming Banani, got %q", got)
	}
}
