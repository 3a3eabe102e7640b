package models

import (
	"context"
	"path/filepath"
	"testing"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
)

const testUtilityId = "utility-test"

// setupTestDB points the package at a fresh sqlite file and returns a request context
// carrying the utility and admin of the caller. Redis stays disconnected.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "tariff.db") + "?_busy_timeout=5000&_foreign_keys=off"
	conn, err := config.OpenDialector(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	config.SetDB(conn)
	config.SetRedisDB(nil)
	if err := AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		config.SetDB(nil)
	})

	ctx := utils.SetUtilityIdInContext(context.Background(), testUtilityId)
	ctx = utils.SetAdminIdInContext(ctx, 7)
	ctx = utils.SetAdminNameInContext(ctx, "tester")
	return ctx
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func mustCreateArea(t *testing.T, ctx context.Context, name string) *Area {
	t.Helper()
	area, err := CreateArea(ctx, &NewArea{Name: name})
	if err != nil {
		t.Fatalf("CreateArea(%s): %v", name, err)
	}
	return area
}

func mustCreateRuleset(t *testing.T, ctx context.Context, name string) *Ruleset {
	t.Helper()
	ruleset, err := CreateRuleset(ctx, &NewRuleset{Name: name})
	if err != nil {
		t.Fatalf("CreateRuleset(%s): %v", name, err)
	}
	return ruleset
}

func scoringInput(areaId int, values ...string) *NewScoringParam {
	return &NewScoringParam{
		AreaId:                              areaId,
		LandHomeRate:                        dec(values[0]),
		LandRate:                            dec(values[1]),
		LandTaxRate:                         dec(values[2]),
		BuildingTaxRateUpto120sqm:           dec(values[3]),
		BuildingTaxRateUpto200sqm:           dec(values[4]),
		BuildingTaxRateAbove200sqm:          dec(values[5]),
		HighIncomeGroupConnectionPercentage: dec(values[6]),
	}
}

func countEvents(t *testing.T, refType TariffReferenceType, refId int) int {
	t.Helper()
	var count int64
	err := config.GetDB().Model(&TariffEventRecord{}).
		Where("reference_type = ? AND reference_id = ?", refType, refId).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	return int(count)
}
