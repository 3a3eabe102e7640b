package models

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/tariff_backend/scoring"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const importHeader = "Area Name,Land Home Rate,Land Rate,Land Tax Rate,Building Tax Rate Upto 120 sqm,Building Tax Rate Upto 200 sqm,Building Tax Rate Above 200 sqm,High Income Group Connection\n"

func TestImportTemplateCreatesNormalizedParam(t *testing.T) {
	ctx := setupTestDB(t)

	mustCreateArea(t, ctx, scoring.ExampleAreaName)
	ruleset := mustCreateRuleset(t, ctx, "FY25")

	result, err := ImportScoringParamsCSV(ctx, ruleset.ID, scoring.GenerateCSVTemplate())
	if err != nil {
		t.Fatalf("ImportScoringParamsCSV: %v", err)
	}
	if !result.Parse.Success || result.Created != 1 || result.Updated != 0 {
		t.Fatalf("unexpected import result %+v", result)
	}

	loaded, err := GetRuleset(ctx, ruleset.ID)
	if err != nil {
		t.Fatalf("GetRuleset: %v", err)
	}
	if len(loaded.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(loaded.Params))
	}
	p := loaded.Params[0]
	if !p.LandHomeRate.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected raw land home rate 250000, got %s", p.LandHomeRate)
	}
	if !p.LandHomeRatePercentage.Equal(decimal.NewFromInt(100)) || !p.GeoMean.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("single area should score 100%% and geo mean 1, got %s / %s", p.LandHomeRatePercentage, p.GeoMean)
	}
}

func TestImportRejectsDuplicateArea(t *testing.T) {
	ctx := setupTestDB(t)

	mustCreateArea(t, ctx, "Gulshan")
	ruleset := mustCreateRuleset(t, ctx, "FY25")

	csv := importHeader +
		"Gulshan,1,1,1,1,1,1,1\n" +
		"gulshan,2,2,2,2,2,2,2\n"
	_, err := ImportScoringParamsCSV(ctx, ruleset.ID, csv)

	var dupErr *scoring.DuplicateAreaError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateAreaError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Gulshan") {
		t.Fatalf("expected error to name the area, got %q", err.Error())
	}

	loaded, err := GetRuleset(ctx, ruleset.ID)
	if err != nil {
		t.Fatalf("GetRuleset: %v", err)
	}
	if len(loaded.Params) != 0 {
		t.Fatalf("expected nothing written, got %d params", len(loaded.Params))
	}
}

func TestImportRowErrorsWriteNothing(t *testing.T) {
	ctx := setupTestDB(t)

	mustCreateArea(t, ctx, "Gulshan")
	mustCreateArea(t, ctx, "Banani")
	ruleset := mustCreateRuleset(t, ctx, "FY25")

	csv := importHeader +
		"Gulshan,1,1,1,1,1,1,1\n" +
		"Banani,0x1p4,1,1,1,1,1,1\n"
	result, err := ImportScoringParamsCSV(ctx, ruleset.ID, csv)
	if err != nil {
		t.Fatalf("row errors must come back as data, got %v", err)
	}
	if result.Parse.Success || len(result.Parse.Errors) != 1 || result.Created != 0 {
		t.Fatalf("unexpected import result %+v", result)
	}
	if !strings.HasPrefix(result.Parse.Errors[0], "Row 3:") {
		t.Fatalf("expected the error on row 3, got %q", result.Parse.Errors[0])
	}

	loaded, err := GetRuleset(ctx, ruleset.ID)
	if err != nil {
		t.Fatalf("GetRuleset: %v", err)
	}
	if len(loaded.Params) != 0 {
		t.Fatalf("expected nothing written, got %d params", len(loaded.Params))
	}
}

func TestImportUpsertsByAreaAndRenormalizes(t *testing.T) {
	ctx := setupTestDB(t)

	gulshan := mustCreateArea(t, ctx, "Gulshan")
	banani := mustCreateArea(t, ctx, "Banani")
	ruleset := mustCreateRuleset(t, ctx, "FY25")

	if _, err := AddScoringParam(ctx, ruleset.ID, scoringInput(gulshan.ID, "100", "100", "100", "100", "100", "100", "100")); err != nil {
		t.Fatalf("AddScoringParam: %v", err)
	}

	csv := importHeader +
		"Gulshan,50,50,50,50,50,50,50\n" +
		"Banani,200,200,200,200,200,200,200\n"
	result, err := ImportScoringParamsCSV(ctx, ruleset.ID, csv)
	if err != nil {
		t.Fatalf("ImportScoringParamsCSV: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 {
		t.Fatalf("expected 1 created and 1 updated, got %+v", result)
	}

	records, err := ScoringRecords(ctx, ruleset.ID)
	if err != nil {
		t.Fatalf("ScoringRecords: %v", err)
	}
	byArea := map[int]scoring.Record{}
	for _, r := range records {
		byArea[r.AreaId] = r
	}
	if got := byArea[gulshan.ID].Percentages.LandRate; got != "25.00" {
		t.Fatalf("expected Gulshan land rate 25.00%%, got %s", got)
	}
	if got := byArea[banani.ID].Percentages.LandRate; got != "100.00" {
		t.Fatalf("expected Banani land rate 100.00%%, got %s", got)
	}
	if got := byArea[gulshan.ID].GeoMean; got != "0.250000" {
		t.Fatalf("expected Gulshan geo mean 0.250000, got %s", got)
	}
}

func TestScoringParamEditsRecalculateBatch(t *testing.T) {
	ctx := setupTestDB(t)

	gulshan := mustCreateArea(t, ctx, "Gulshan")
	banani := mustCreateArea(t, ctx, "Banani")
	ruleset := mustCreateRuleset(t, ctx, "FY25")

	if _, err := AddScoringParam(ctx, ruleset.ID, scoringInput(gulshan.ID, "10", "10", "10", "10", "10", "10", "10")); err != nil {
		t.Fatalf("AddScoringParam: %v", err)
	}
	updated, err := AddScoringParam(ctx, ruleset.ID, scoringInput(banani.ID, "20", "20", "20", "20", "20", "20", "20"))
	if err != nil {
		t.Fatalf("AddScoringParam: %v", err)
	}

	// same area twice in a ruleset
	if _, err := AddScoringParam(ctx, ruleset.ID, scoringInput(gulshan.ID, "1", "1", "1", "1", "1", "1", "1")); err == nil || !strings.Contains(err.Error(), "Gulshan") {
		t.Fatalf("expected duplicate area error naming Gulshan, got %v", err)
	}

	var bananiParam *ScoringParam
	for _, p := range updated.Params {
		if p.AreaId == banani.ID {
			bananiParam = p
		}
	}
	if bananiParam == nil {
		t.Fatalf("Banani param missing from %+v", updated.Params)
	}

	// removing the maximum rescales the rest
	after, err := RemoveScoringParam(ctx, bananiParam.ID)
	if err != nil {
		t.Fatalf("RemoveScoringParam: %v", err)
	}
	if len(after.Params) != 1 || !after.Params[0].LandRatePercentage.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected Gulshan alone at 100%%, got %+v", after.Params)
	}

	gulshanParam := after.Params[0]
	changed, err := UpdateScoringParam(ctx, gulshanParam.ID, scoringInput(gulshan.ID, "0", "0", "0", "0", "0", "0", "0"))
	if err != nil {
		t.Fatalf("UpdateScoringParam: %v", err)
	}
	if !changed.Params[0].GeoMean.IsZero() {
		t.Fatalf("all zero values should give geo mean 0, got %s", changed.Params[0].GeoMean)
	}

	if _, err := UpdateScoringParam(ctx, gulshanParam.ID, scoringInput(gulshan.ID, "-1", "0", "0", "0", "0", "0", "0")); err == nil {
		t.Fatalf("expected negative value to be rejected")
	}
}

func TestExportScoringParamsXLSX(t *testing.T) {
	ctx := setupTestDB(t)

	mustCreateArea(t, ctx, scoring.ExampleAreaName)
	ruleset := mustCreateRuleset(t, ctx, "FY25")
	if _, err := ImportScoringParamsCSV(ctx, ruleset.ID, scoring.GenerateCSVTemplate()); err != nil {
		t.Fatalf("ImportScoringParamsCSV: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportScoringParamsXLSX(ctx, ruleset.ID, &buf); err != nil {
		t.Fatalf("ExportScoringParamsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	name, err := f.GetCellValue(f.GetSheetList()[0], "B2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if name != scoring.ExampleAreaName {
		t.Fatalf("expected area name in B2, got %q", name)
	}
}
