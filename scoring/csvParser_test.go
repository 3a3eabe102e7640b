package scoring

import (
	"reflect"
	"strings"
	"testing"
)

const fullHeader = "Area Name,Land Home Rate,Land Rate,Land Tax Rate,Building Tax Rate Upto 120 sqm,Building Tax Rate Upto 200 sqm,Building Tax Rate Above 200 sqm,High Income Group Connection"

var testAreas = map[string]int{
	"Gulshan":   1,
	"Banani":    2,
	"Dhanmondi": 3,
}

func TestSplitCSVLine(t *testing.T) {
	cases := []struct {
		in       string
		expected []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{` a , b ,c `, []string{"a", "b", "c"}},
		{`"Dhaka, North",1`, []string{"Dhaka, North", "1"}},
		{`"say ""hi""",2`, []string{`say "hi"`, "2"}},
		{`'Banani',3`, []string{"Banani", "3"}},
		{`a,,c`, []string{"a", "", "c"}},
		{`a,`, []string{"a", ""}},
	}
	for _, tc := range cases {
		got := splitCSVLine(tc.in)
		if !reflect.DeepEqual(got, tc.expected) {
			t.Fatalf("splitCSVLine(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Area Name", "areaName"},
		{"AREA", "areaName"},
		{"area_id", "areaId"},
		{"Land Rate (BDT/sqm)", "landRate"},
		{"landHomeRate", "landHomeRate"},
		{"Building Tax Rate Upto 120 sqm (%)", "buildingTaxRateUpto120sqm"},
		{"building_tax_rate_above_200sqm", "buildingTaxRateAbove200sqm"},
		{"High Income Group Connection (%)", "highIncomeGroupConnectionPercentage"},
		{"Zone (reference only)", "zone"},
		{"  Something Else ", "something else"},
	}
	for _, tc := range cases {
		if got := NormalizeHeader(tc.in); got != tc.expected {
			t.Fatalf("NormalizeHeader(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestParseEmptyFile(t *testing.T) {
	for _, content := range []string{"", "\ufeff", "  \r\n\n  "} {
		result := ParseScoringParamsCSV(content, testAreas)
		if result.Success {
			t.Fatalf("expected failure for %q", content)
		}
		if len(result.Errors) != 1 || result.Errors[0] != ErrEmptyCSV {
			t.Fatalf("expected single %q error, got %v", ErrEmptyCSV, result.Errors)
		}
	}
}

func TestParseHeaderOnly(t *testing.T) {
	result := ParseScoringParamsCSV(fullHeader+"\n", testAreas)
	if result.Success || len(result.Errors) != 1 || result.Errors[0] != ErrHeaderOnlyCSV {
		t.Fatalf("expected header only error, got %+v", result)
	}
}

func TestParseValidRows(t *testing.T) {
	content := "\ufeff" + fullHeader + "\r\n" +
		"Gulshan,100,200,1.5,2,3,4,50\r\n" +
		"\r\n" +
		"\"banani\",50,100,0.75,1,1.5,2,25\r\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if !result.Success {
		t.Fatalf("expected success, got errors %v", result.Errors)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Data))
	}
	first := result.Data[0]
	if first.AreaId != 1 || first.Raw.LandRate != "200" || first.Raw.HighIncomeGroupConnectionPercentage != "50" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if result.Data[1].AreaId != 2 {
		t.Fatalf("expected case-insensitive area match, got %+v", result.Data[1])
	}
	if first.GeoMean != "" || first.Percentages.LandRate != "" {
		t.Fatalf("derived fields must be blank on parser output, got %+v", first)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}
}

func TestParseByAreaId(t *testing.T) {
	content := "Area ID,landHomeRate,landRate,landTaxRate,buildingTaxRateUpto120sqm,buildingTaxRateUpto200sqm,buildingTaxRateAbove200sqm,highIncomeGroupConnectionPercentage\n" +
		"3,1,1,1,1,1,1,1\n" +
		"0,1,1,1,1,1,1,1\n" +
		"abc,1,1,1,1,1,1,1\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if result.Success {
		t.Fatalf("expected failure for invalid ids")
	}
	if len(result.Data) != 1 || result.Data[0].AreaId != 3 || result.Data[0].AreaName != "Dhanmondi" {
		t.Fatalf("unexpected data %+v", result.Data)
	}
	if len(result.Errors) != 2 || !strings.HasPrefix(result.Errors[0], "Row 3:") || !strings.HasPrefix(result.Errors[1], "Row 4:") {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
}

func TestParseRowErrorsContinue(t *testing.T) {
	content := fullHeader + "\n" +
		"Gulshan,100,200,1.5,2,3,4,50\n" +
		"Nowhere,100,200,1.5,2,3,4,50\n" +
		"Banani,,200,1.5,2,3,4,50\n" +
		"Dhanmondi,abc,200,1.5,2,3,4,-1\n" +
		"Banani,1,2,3,4,5,6,7\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if result.Success {
		t.Fatalf("expected success=false when rows fail")
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 accepted rows, got %d", len(result.Data))
	}
	expectedPrefixes := []string{"Row 3: area \"Nowhere\" not found", "Row 4: landHomeRate is required", "Row 5: landHomeRate must be a number"}
	if len(result.Errors) != len(expectedPrefixes) {
		t.Fatalf("expected %d errors, got %v", len(expectedPrefixes), result.Errors)
	}
	for i, prefix := range expectedPrefixes {
		if !strings.HasPrefix(result.Errors[i], prefix) {
			t.Fatalf("error %d expected prefix %q, got %q", i, prefix, result.Errors[i])
		}
	}
	if !strings.Contains(result.Errors[2], "highIncomeGroupConnectionPercentage must not be negative") {
		t.Fatalf("expected negative value reason in %q", result.Errors[2])
	}
	expectedWarnings := []string{"Row 3 skipped", "Row 4 skipped", "Row 5 skipped"}
	if !reflect.DeepEqual(result.Warnings, expectedWarnings) {
		t.Fatalf("expected warnings %v, got %v", expectedWarnings, result.Warnings)
	}
}

func TestParseRejectsNumbersOutsideDecimalSyntax(t *testing.T) {
	content := fullHeader + "\n" +
		"Gulshan,0x1p4,200,1.5,2,3,4,50\n" +
		"Banani,8,Inf,1.5,2,3,4,50\n" +
		"Dhanmondi,1_000,200,NaN,2,3,4,50\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if result.Success || len(result.Data) != 0 {
		t.Fatalf("expected every row to be rejected, got %+v", result)
	}
	expected := []string{
		`Row 2: landHomeRate must be a number (got "0x1p4")`,
		`Row 3: landRate must be a number (got "Inf")`,
		`Row 4: landHomeRate must be a number (got "1_000"); landTaxRate must be a number (got "NaN")`,
	}
	if !reflect.DeepEqual(result.Errors, expected) {
		t.Fatalf("expected errors %q, got %q", expected, result.Errors)
	}

	// every accepted value must be read the same way by Normalize
	result = ParseScoringParamsCSV(fullHeader+"\nGulshan,16,1,1,1,1,1,1\nBanani,1.6e1,1,1,1,1,1,1\nDhanmondi,8,1,1,1,1,1,1\n", testAreas)
	if !result.Success {
		t.Fatalf("expected success, got %v", result.Errors)
	}
	normalized := Normalize(result.Data)
	got := []string{
		normalized[0].Percentages.Get(LandHomeRate),
		normalized[1].Percentages.Get(LandHomeRate),
		normalized[2].Percentages.Get(LandHomeRate),
	}
	if !reflect.DeepEqual(got, []string{"100.00", "100.00", "50.00"}) {
		t.Fatalf("unexpected landHomeRate percentages %v", got)
	}
}

func TestParseRowNumbersSkipBlankLines(t *testing.T) {
	content := fullHeader + "\n\n   \nNowhere,1,1,1,1,1,1,1\n\nGulshan,x,1,1,1,1,1,1\n"
	result := ParseScoringParamsCSV(content, testAreas)
	expected := []string{"Row 2 skipped", "Row 3 skipped"}
	if !reflect.DeepEqual(result.Warnings, expected) {
		t.Fatalf("row numbers must count non-blank lines, expected %v, got %v", expected, result.Warnings)
	}
}

func TestParseMissingAreaColumn(t *testing.T) {
	content := "Zone,Land Home Rate,Land Rate,Land Tax Rate,Building Tax Rate Upto 120 sqm,Building Tax Rate Upto 200 sqm,Building Tax Rate Above 200 sqm,High Income Group Connection\n" +
		"Zone 1,1,1,1,1,1,1,1\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if result.Success || len(result.Data) != 0 {
		t.Fatalf("expected whole parse failure, got %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Found headers: Zone, Land Home Rate") {
		t.Fatalf("expected error listing found headers, got %v", result.Errors)
	}
	if result.HeaderDiagnostics == nil {
		t.Fatalf("expected header diagnostics")
	}
	if result.HeaderDiagnostics.Raw[0] != "Zone" || result.HeaderDiagnostics.Normalized[0] != "zone" {
		t.Fatalf("unexpected diagnostics %+v", result.HeaderDiagnostics)
	}
}

func TestParseMissingNumericColumn(t *testing.T) {
	content := "Area Name,Land Home Rate,Land Rate\nGulshan,1,2\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if result.Success || len(result.Data) != 0 {
		t.Fatalf("expected whole parse failure, got %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "landTaxRate") {
		t.Fatalf("expected missing column error, got %v", result.Errors)
	}
	if result.HeaderDiagnostics == nil {
		t.Fatalf("expected header diagnostics")
	}
}

func TestParseDoesNotRejectDuplicateAreas(t *testing.T) {
	content := fullHeader + "\nGulshan,1,1,1,1,1,1,1\nGulshan,2,2,2,2,2,2,2\n"
	result := ParseScoringParamsCSV(content, testAreas)
	if !result.Success || len(result.Data) != 2 {
		t.Fatalf("parser must accept duplicate areas, got %+v", result)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	template := GenerateCSVTemplate()
	if !strings.HasPrefix(template, "Area Name,Zone (reference only),City Corporation (reference only),") {
		t.Fatalf("unexpected template header: %q", template)
	}
	result := ParseScoringParamsCSV(template, map[string]int{ExampleAreaName: 42})
	if !result.Success || len(result.Errors) != 0 {
		t.Fatalf("template must parse cleanly, got errors %v", result.Errors)
	}
	if len(result.Data) != 1 || result.Data[0].AreaId != 42 {
		t.Fatalf("expected exactly one record for area 42, got %+v", result.Data)
	}
}
