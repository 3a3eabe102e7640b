package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/scoring"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScoringParam holds the raw attributes of one area inside a ruleset together with
// the percentages and geometric mean derived from the whole ruleset.
type ScoringParam struct {
	ID        int    `gorm:"primary_key" json:"id"`
	UtilityId string `gorm:"index;size:64;not null" json:"utility_id"`
	RulesetId int    `gorm:"not null;uniqueIndex:idx_ruleset_area" json:"ruleset_id"`
	AreaId    int    `gorm:"not null;index;uniqueIndex:idx_ruleset_area" json:"area_id"`

	LandHomeRate                        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"land_home_rate"`
	LandRate                            decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"land_rate"`
	LandTaxRate                         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"land_tax_rate"`
	BuildingTaxRateUpto120sqm           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"building_tax_rate_upto_120sqm"`
	BuildingTaxRateUpto200sqm           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"building_tax_rate_upto_200sqm"`
	BuildingTaxRateAbove200sqm          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"building_tax_rate_above_200sqm"`
	HighIncomeGroupConnectionPercentage decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"high_income_group_connection_percentage"`

	LandHomeRatePercentage                        decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"land_home_rate_percentage"`
	LandRatePercentage                            decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"land_rate_percentage"`
	LandTaxRatePercentage                         decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"land_tax_rate_percentage"`
	BuildingTaxRateUpto120sqmPercentage           decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"building_tax_rate_upto_120sqm_percentage"`
	BuildingTaxRateUpto200sqmPercentage           decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"building_tax_rate_upto_200sqm_percentage"`
	BuildingTaxRateAbove200sqmPercentage          decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"building_tax_rate_above_200sqm_percentage"`
	HighIncomeGroupConnectionPercentagePercentage decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0" json:"high_income_group_connection_percentage_percentage"`
	GeoMean                                       decimal.Decimal `gorm:"type:decimal(12,6);not null;default:0" json:"geo_mean"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewScoringParam struct {
	AreaId                              int              `json:"area_id" binding:"required"`
	LandHomeRate                        *decimal.Decimal `json:"land_home_rate" binding:"required"`
	LandRate                            *decimal.Decimal `json:"land_rate" binding:"required"`
	LandTaxRate                         *decimal.Decimal `json:"land_tax_rate" binding:"required"`
	BuildingTaxRateUpto120sqm           *decimal.Decimal `json:"building_tax_rate_upto_120sqm" binding:"required"`
	BuildingTaxRateUpto200sqm           *decimal.Decimal `json:"building_tax_rate_upto_200sqm" binding:"required"`
	BuildingTaxRateAbove200sqm          *decimal.Decimal `json:"building_tax_rate_above_200sqm" binding:"required"`
	HighIncomeGroupConnectionPercentage *decimal.Decimal `json:"high_income_group_connection_percentage" binding:"required"`
}

// ImportResult is the outcome of a scoring parameter import.
// Row problems are reported in Parse; nothing is written unless Parse.Success.
type ImportResult struct {
	Parse   scoring.ParseResult `json:"parse"`
	Created int                 `json:"created"`
	Updated int                 `json:"updated"`
	Ruleset *Ruleset            `json:"ruleset,omitempty"`
}

// the raw column of an attribute
func (p *ScoringParam) raw(a scoring.Attribute) *decimal.Decimal {
	switch a {
	case scoring.LandHomeRate:
		return &p.LandHomeRate
	case scoring.LandRate:
		return &p.LandRate
	case scoring.LandTaxRate:
		return &p.LandTaxRate
	case scoring.BuildingTaxRateUpto120sqm:
		return &p.BuildingTaxRateUpto120sqm
	case scoring.BuildingTaxRateUpto200sqm:
		return &p.BuildingTaxRateUpto200sqm
	case scoring.BuildingTaxRateAbove200sqm:
		return &p.BuildingTaxRateAbove200sqm
	case scoring.HighIncomeGroupConnectionPercentage:
		return &p.HighIncomeGroupConnectionPercentage
	}
	panic("models: unknown scoring attribute")
}

// the derived percentage column of an attribute
func (p *ScoringParam) percentage(a scoring.Attribute) *decimal.Decimal {
	switch a {
	case scoring.LandHomeRate:
		return &p.LandHomeRatePercentage
	case scoring.LandRate:
		return &p.LandRatePercentage
	case scoring.LandTaxRate:
		return &p.LandTaxRatePercentage
	case scoring.BuildingTaxRateUpto120sqm:
		return &p.BuildingTaxRateUpto120sqmPercentage
	case scoring.BuildingTaxRateUpto200sqm:
		return &p.BuildingTaxRateUpto200sqmPercentage
	case scoring.BuildingTaxRateAbove200sqm:
		return &p.BuildingTaxRateAbove200sqmPercentage
	case scoring.HighIncomeGroupConnectionPercentage:
		return &p.HighIncomeGroupConnectionPercentagePercentage
	}
	panic("models: unknown scoring attribute")
}

func (input *NewScoringParam) value(a scoring.Attribute) *decimal.Decimal {
	switch a {
	case scoring.LandHomeRate:
		return input.LandHomeRate
	case scoring.LandRate:
		return input.LandRate
	case scoring.LandTaxRate:
		return input.LandTaxRate
	case scoring.BuildingTaxRateUpto120sqm:
		return input.BuildingTaxRateUpto120sqm
	case scoring.BuildingTaxRateUpto200sqm:
		return input.BuildingTaxRateUpto200sqm
	case scoring.BuildingTaxRateAbove200sqm:
		return input.BuildingTaxRateAbove200sqm
	case scoring.HighIncomeGroupConnectionPercentage:
		return input.HighIncomeGroupConnectionPercentage
	}
	return nil
}

// Record converts the row to the normalizer's representation.
func (p ScoringParam) Record(areaName string) scoring.Record {
	r := scoring.Record{
		AreaId:   p.AreaId,
		AreaName: areaName,
		GeoMean:  p.GeoMean.StringFixed(6),
	}
	for _, a := range scoring.Attributes {
		r.Raw.Set(a, p.raw(a).String())
		r.Percentages.Set(a, p.percentage(a).StringFixed(2))
	}
	return r
}

// setRaw copies the raw values of a parsed record.
func (p *ScoringParam) setRaw(r scoring.Record) error {
	for _, a := range scoring.Attributes {
		v, err := utils.ParseDecimal(r.Raw.Get(a))
		if err != nil {
			return fmt.Errorf("%s: %w", a.Label(), err)
		}
		*p.raw(a) = v
	}
	return nil
}

// setDerived copies percentages and geo mean computed by the normalizer.
func (p *ScoringParam) setDerived(r scoring.Record) error {
	for _, a := range scoring.Attributes {
		v, err := utils.ParseDecimal(r.Percentages.Get(a))
		if err != nil {
			return fmt.Errorf("%s percentage: %w", a.Label(), err)
		}
		*p.percentage(a) = v
	}
	geoMean, err := utils.ParseDecimal(r.GeoMean)
	if err != nil {
		return fmt.Errorf("geo mean: %w", err)
	}
	p.GeoMean = geoMean
	return nil
}

func (p ScoringParam) rawColumns() map[string]interface{} {
	columns := make(map[string]interface{}, len(scoring.Attributes))
	for _, a := range scoring.Attributes {
		columns[fieldName(a)] = *p.raw(a)
	}
	return columns
}

func (p ScoringParam) derivedColumns() map[string]interface{} {
	columns := map[string]interface{}{"GeoMean": p.GeoMean}
	for _, a := range scoring.Attributes {
		columns[fieldName(a)+"Percentage"] = *p.percentage(a)
	}
	return columns
}

// struct field name of an attribute, landRate -> LandRate
func fieldName(a scoring.Attribute) string {
	key := a.Key()
	return strings.ToUpper(key[:1]) + key[1:]
}

// copyTo duplicates the row into another ruleset.
func (p ScoringParam) copyTo(rulesetId int) ScoringParam {
	copied := p
	copied.ID = 0
	copied.RulesetId = rulesetId
	copied.CreatedAt = time.Time{}
	copied.UpdatedAt = time.Time{}
	return copied
}

func (input *NewScoringParam) validate(ctx context.Context, utilityId string, rulesetId int, id int) error {
	if err := utils.ValidateResourceId[Area](ctx, utilityId, input.AreaId); err != nil {
		return errors.New("area not found")
	}
	for _, a := range scoring.Attributes {
		v := input.value(a)
		if v == nil {
			return fmt.Errorf("%s is required", a.Label())
		}
		if v.IsNegative() {
			return fmt.Errorf("%s must not be negative", a.Label())
		}
	}
	// one row per area in a ruleset
	var count int64
	var err error
	if id == 0 {
		count, err = utils.ResourceCountWhere[ScoringParam](ctx, utilityId, "ruleset_id = ? AND area_id = ?", rulesetId, input.AreaId)
	} else {
		count, err = utils.ResourceCountWhere[ScoringParam](ctx, utilityId, "ruleset_id = ? AND area_id = ? AND NOT id = ?", rulesetId, input.AreaId, id)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		area, err := utils.FetchModel[Area](ctx, utilityId, input.AreaId)
		if err != nil {
			return err
		}
		return &scoring.DuplicateAreaError{Duplicates: []scoring.DuplicateArea{
			{AreaId: area.ID, AreaName: area.Name, Count: int(count) + 1},
		}}
	}
	return nil
}

func (input *NewScoringParam) apply(p *ScoringParam) {
	p.AreaId = input.AreaId
	for _, a := range scoring.Attributes {
		*p.raw(a) = *input.value(a)
	}
}

// recalculateRulesetTx recomputes every derived value of a ruleset and writes the whole batch.
func recalculateRulesetTx(tx *gorm.DB, utilityId string, rulesetId int) ([]*ScoringParam, error) {
	var params []*ScoringParam
	err := tx.Where("utility_id = ? AND ruleset_id = ?", utilityId, rulesetId).
		Order("area_id").
		Find(&params).Error
	if err != nil {
		return nil, err
	}

	records := make([]scoring.Record, len(params))
	for i, p := range params {
		records[i] = p.Record("")
	}
	normalized := scoring.Normalize(records)

	for i, p := range params {
		if err := p.setDerived(normalized[i]); err != nil {
			return nil, err
		}
		err := tx.Model(p).UpdateColumns(p.derivedColumns()).Error
		if err != nil {
			return nil, err
		}
	}
	return params, nil
}

// writeScoringParams runs fn and the ruleset recalculation in one transaction
// while holding the ruleset lock.
func writeScoringParams(ctx context.Context, rulesetId int, functionName string, description string, fn func(tx *gorm.DB, utilityId string) error) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	release, err := lockRuleset(ctx, rulesetId, functionName)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	ruleset, err := fetchDraftRulesetTx(tx.WithContext(ctx), utilityId, rulesetId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := fn(tx.WithContext(ctx), utilityId); err != nil {
		tx.Rollback()
		return nil, err
	}
	params, err := recalculateRulesetTx(tx.WithContext(ctx), utilityId, rulesetId)
	if err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "ScoringParam", functionName, "recalculate ruleset", rulesetId, err)
		return nil, err
	}
	ruleset.Params = params

	if err := createHistory(tx.WithContext(ctx), HistoryActionUpdate, ruleset.ID, "rulesets", nil, params, description); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), ruleset.ID, TariffReferenceTypeRuleset, TariffEventActionRecalc, ruleset); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return ruleset, nil
}

func AddScoringParam(ctx context.Context, rulesetId int, input *NewScoringParam) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, utilityId, rulesetId, 0); err != nil {
		return nil, err
	}

	return writeScoringParams(ctx, rulesetId, "AddScoringParam", "Added scoring parameter",
		func(tx *gorm.DB, utilityId string) error {
			param := ScoringParam{UtilityId: utilityId, RulesetId: rulesetId}
			input.apply(&param)
			return tx.Create(&param).Error
		})
}

func UpdateScoringParam(ctx context.Context, id int, input *NewScoringParam) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	param, err := utils.FetchModel[ScoringParam](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, utilityId, param.RulesetId, id); err != nil {
		return nil, err
	}

	return writeScoringParams(ctx, param.RulesetId, "UpdateScoringParam", "Updated scoring parameter",
		func(tx *gorm.DB, utilityId string) error {
			input.apply(param)
			columns := param.rawColumns()
			columns["AreaId"] = param.AreaId
			return tx.Model(param).Updates(columns).Error
		})
}

func RemoveScoringParam(ctx context.Context, id int) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	param, err := utils.FetchModel[ScoringParam](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	return writeScoringParams(ctx, param.RulesetId, "RemoveScoringParam", "Removed scoring parameter",
		func(tx *gorm.DB, utilityId string) error {
			return tx.Delete(param).Error
		})
}

// ImportScoringParams parses an uploaded .csv or .xlsx file and merges it into a draft ruleset.
// Rows are matched by area: known areas are updated, new areas are added.
// Row errors come back in the result and leave the ruleset untouched.
func ImportScoringParams(ctx context.Context, rulesetId int, filename string, data []byte) (*ImportResult, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Ruleset](ctx, utilityId, rulesetId); err != nil {
		return nil, err
	}

	if config.ArchiveImportFiles() {
		archiveImportFile(ctx, utilityId, rulesetId, filename, data)
	}

	areas, err := GetAreaLookup(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := scoring.ParseFile(filename, data, areas)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Parse: parsed}
	if !parsed.Success {
		return result, nil
	}
	if err := scoring.CheckDuplicateAreas(parsed.Data); err != nil {
		return nil, err
	}

	areaIds := make([]int, len(parsed.Data))
	for i, r := range parsed.Data {
		areaIds[i] = r.AreaId
	}
	if err := utils.ValidateResourcesId[Area](ctx, utilityId, areaIds); err != nil {
		return nil, errors.New("scoring parameters reference an unknown area")
	}

	description := fmt.Sprintf("Imported %d scoring parameter(s) from %s", len(parsed.Data), filepath.Base(filename))
	ruleset, err := writeScoringParams(ctx, rulesetId, "ImportScoringParams", description,
		func(tx *gorm.DB, utilityId string) error {
			var existing []*ScoringParam
			if err := tx.Where("utility_id = ? AND ruleset_id = ?", utilityId, rulesetId).Find(&existing).Error; err != nil {
				return err
			}
			byArea := make(map[int]*ScoringParam, len(existing))
			for _, p := range existing {
				byArea[p.AreaId] = p
			}

			for _, r := range parsed.Data {
				if p, ok := byArea[r.AreaId]; ok {
					if err := p.setRaw(r); err != nil {
						return err
					}
					if err := tx.Model(p).Updates(p.rawColumns()).Error; err != nil {
						return err
					}
					result.Updated++
					continue
				}
				param := ScoringParam{UtilityId: utilityId, RulesetId: rulesetId, AreaId: r.AreaId}
				if err := param.setRaw(r); err != nil {
					return err
				}
				if err := tx.Create(&param).Error; err != nil {
					return err
				}
				result.Created++
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	result.Ruleset = ruleset
	return result, nil
}

func ImportScoringParamsCSV(ctx context.Context, rulesetId int, content string) (*ImportResult, error) {
	return ImportScoringParams(ctx, rulesetId, "import.csv", []byte(content))
}

func ImportScoringParamsXLSX(ctx context.Context, rulesetId int, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ImportScoringParams(ctx, rulesetId, "import.xlsx", data)
}

// archive failures are logged, the import goes on
func archiveImportFile(ctx context.Context, utilityId string, rulesetId int, filename string, data []byte) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	contentType := "text/csv"
	if ext == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	objectName := utils.ImportArchiveObjectName(utilityId, rulesetId, ext)
	if err := utils.UploadBytesToGCS(ctx, objectName, data, contentType); err != nil {
		config.LogError(config.GetLogger(), "ScoringParam", "ImportScoringParams", "archive import file", objectName, err)
	}
}

// ScoringRecords returns the ruleset's rows with area names, ordered by area name.
func ScoringRecords(ctx context.Context, rulesetId int) ([]scoring.Record, error) {

	ruleset, err := GetRuleset(ctx, rulesetId)
	if err != nil {
		return nil, err
	}
	areas, err := ListAllResource[Area](ctx, "name")
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(areas))
	for _, area := range areas {
		names[area.ID] = area.Name
	}

	records := make([]scoring.Record, len(ruleset.Params))
	for i, p := range ruleset.Params {
		records[i] = p.Record(names[p.AreaId])
	}
	sort.SliceStable(records, func(i, j int) bool {
		return strings.ToLower(records[i].AreaName) < strings.ToLower(records[j].AreaName)
	})
	return records, nil
}

func ExportScoringParamsXLSX(ctx context.Context, rulesetId int, w io.Writer) error {
	records, err := ScoringRecords(ctx, rulesetId)
	if err != nil {
		return err
	}
	return scoring.ExportScoringParamsXLSX(w, records)
}

// RecalculateRuleset recomputes the derived values of any ruleset, whatever its status.
func RecalculateRuleset(ctx context.Context, rulesetId int) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	release, err := lockRuleset(ctx, rulesetId, "RecalculateRuleset")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	ruleset, err := utils.FetchModelTx[Ruleset](tx.WithContext(ctx), utilityId, rulesetId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	params, err := recalculateRulesetTx(tx.WithContext(ctx), utilityId, rulesetId)
	if err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "ScoringParam", "RecalculateRuleset", "recalculate ruleset", rulesetId, err)
		return nil, err
	}
	ruleset.Params = params
	if err := PublishTariffEvent(tx.WithContext(ctx), ruleset.ID, TariffReferenceTypeRuleset, TariffEventActionRecalc, ruleset); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return ruleset, nil
}
