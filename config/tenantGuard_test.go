package config

import (
	"context"
	"path/filepath"
	"testing"

	"bitbucket.org/mmdatafocus/tariff_backend/appctx"
	"gorm.io/driver/sqlite"
)

type guardedRow struct {
	ID        int `gorm:"primary_key"`
	UtilityId string
	Name      string
}

type unguardedRow struct {
	ID   int `gorm:"primary_key"`
	Name string
}

func TestTenantGuardScopesQueries(t *testing.T) {
	conn, err := OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "guard.db")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := conn.AutoMigrate(&guardedRow{}, &unguardedRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	rows := []guardedRow{{UtilityId: "dhaka", Name: "a"}, {UtilityId: "dhaka", Name: "b"}, {UtilityId: "ctg", Name: "c"}}
	if err := conn.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := conn.Create(&[]unguardedRow{{Name: "x"}, {Name: "y"}}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	dhaka := appctx.Set(context.Background(), appctx.ContextKeyUtilityId, "dhaka")
	tests := []struct {
		name     string
		ctx      context.Context
		model    any
		expected int64
	}{
		{"scoped to the utility", dhaka, &guardedRow{}, 2},
		{"no utility in context", context.Background(), &guardedRow{}, 3},
		{"explicit bypass", appctx.Set(dhaka, appctx.ContextKeySkipTenantScope, true), &guardedRow{}, 3},
		{"model without utility column", dhaka, &unguardedRow{}, 2},
	}
	for _, tt := range tests {
		var count int64
		if err := conn.WithContext(tt.ctx).Model(tt.model).Count(&count).Error; err != nil {
			t.Fatalf("%s: count: %v", tt.name, err)
		}
		if count != tt.expected {
			t.Fatalf("%s: expected %d rows, got %d", tt.name, tt.expected, count)
		}
	}

	// an explicit tenant filter is not duplicated and wins over the context
	var names []string
	if err := conn.WithContext(dhaka).Model(&guardedRow{}).Where("utility_id = ?", "ctg").Pluck("name", &names).Error; err != nil {
		t.Fatalf("pluck: %v", err)
	}
	if len(names) != 1 || names[0] != "c" {
		t.Fatalf("expected the explicit filter to apply, got %v", names)
	}

	if err := conn.WithContext(dhaka).Where("name = ?", "c").Delete(&guardedRow{}).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	var remaining int64
	conn.Model(&guardedRow{}).Count(&remaining)
	if remaining != 3 {
		t.Fatalf("delete must not reach another utility's rows, %d remain", remaining)
	}
}
