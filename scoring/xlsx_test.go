package scoring

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportThenImportXLSX(t *testing.T) {
	records := Normalize([]Record{
		{AreaId: 1, AreaName: "Gulshan", Raw: uniformValues("100")},
		{AreaId: 2, AreaName: "Banani", Raw: uniformValues("40")},
	})

	var buf bytes.Buffer
	if err := ExportScoringParamsXLSX(&buf, records); err != nil {
		t.Fatalf("ExportScoringParamsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != exportSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	geo, err := f.GetCellValue(exportSheet, "Q3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if geo != records[1].GeoMean {
		t.Fatalf("expected geoMean %s in export, got %s", records[1].GeoMean, geo)
	}
	_ = f.Close()

	result := ParseScoringParamsXLSX(bytes.NewReader(buf.Bytes()), nil)
	if !result.Success {
		t.Fatalf("re-import failed: %v", result.Errors)
	}
	if len(result.Data) != 2 || result.Data[1].AreaId != 2 || result.Data[1].Raw.LandRate != "40" {
		t.Fatalf("unexpected re-imported data %+v", result.Data)
	}
}

func TestParseXLSXSkipsBlankRows(t *testing.T) {
	f := excelize.NewFile()
	headers := TemplateHeaders()
	rows := [][]interface{}{
		{"Banani", "", "", "1", "2", "3", "4", "5", "6", "7"},
		{},
		{"Nowhere", "", "", "1", "2", "3", "4", "5", "6", "7"},
	}
	if err := f.SetSheetRow("Sheet1", "A1", &headers); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	result := ParseScoringParamsXLSX(&buf, testAreas)
	if result.Success || len(result.Data) != 1 {
		t.Fatalf("expected one accepted row and one failure, got %+v", result)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Row 3:") {
		t.Fatalf("blank rows must not count toward row numbers, got %v", result.Errors)
	}
}

func TestParseFileRejectsUnknownExtension(t *testing.T) {
	if _, err := ParseFile("params.pdf", []byte("x"), nil); err == nil {
		t.Fatalf("expected unsupported file type error")
	}
	result, err := ParseFile("params.CSV", []byte(GenerateCSVTemplate()), map[string]int{ExampleAreaName: 1})
	if err != nil || !result.Success {
		t.Fatalf("expected csv dispatch to succeed, got %v %v", err, result.Errors)
	}
}
