package models

import (
	"context"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/tariff"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ThresholdSlab is one consumption band of a tariff configuration.
// An open ended band stores tariff.UnlimitedUpperLimit as its upper limit.
type ThresholdSlab struct {
	ID             int             `gorm:"primary_key" json:"id"`
	UtilityId      string          `gorm:"index;size:64;not null" json:"utility_id"`
	TariffConfigId int             `gorm:"index;not null" json:"tariff_config_id"`
	LowerLimit     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"lower_limit"`
	UpperLimit     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"upper_limit"`
	Rate           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	SortOrder      int             `gorm:"not null;default:0" json:"sort_order"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	Range          string          `gorm:"-" json:"range"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// A nil UpperLimit means no upper limit. A nil SortOrder is assigned from the lower limit
// on create and kept on update.
type NewThresholdSlab struct {
	LowerLimit *decimal.Decimal `json:"lower_limit" binding:"required"`
	UpperLimit *decimal.Decimal `json:"upper_limit"`
	Rate       *decimal.Decimal `json:"rate" binding:"required"`
	SortOrder  *int             `json:"sort_order"`
	IsActive   *bool            `json:"is_active"`
}

// SlabValidation is the dry run outcome of a slab write.
type SlabValidation struct {
	Valid  bool               `json:"valid"`
	Errors tariff.FieldErrors `json:"errors"`
	Plan   tariff.Plan        `json:"plan"`
}

const tariffConfigLockType = "tariff_config"

func lockTariffConfig(ctx context.Context, id int, functionName string) (func(), error) {
	return utils.ObtainLock(ctx, tariffConfigLockType, strconv.Itoa(id), "ThresholdSlab", functionName)
}

func slabOptions() tariff.Options {
	return tariff.Options{IncludeInactive: config.StrictSlabOverlap()}
}

// Slab converts the row to the validator's representation.
func (s ThresholdSlab) Slab() tariff.Slab {
	return tariff.Slab{
		ID:         s.ID,
		LowerLimit: s.LowerLimit,
		UpperLimit: tariff.UpperLimitFromPersisted(s.UpperLimit),
		Rate:       s.Rate,
		SortOrder:  s.SortOrder,
		IsActive:   utils.DereferencePtr(s.IsActive, true),
	}
}

// candidate builds the validator input; current is nil on create.
func (input *NewThresholdSlab) candidate(current *ThresholdSlab) tariff.Candidate {
	c := tariff.Candidate{
		LowerLimit: utils.DereferencePtr(input.LowerLimit),
		UpperLimit: input.UpperLimit,
		Rate:       utils.DereferencePtr(input.Rate),
		SortOrder:  input.SortOrder,
		IsActive:   utils.DereferencePtr(input.IsActive, true),
	}
	if current != nil {
		c.ID = current.ID
		if input.IsActive == nil {
			c.IsActive = utils.DereferencePtr(current.IsActive, true)
		}
	}
	return c
}

func loadSlabsTx(tx *gorm.DB, utilityId string, tariffConfigId int) ([]*ThresholdSlab, []tariff.Slab, error) {
	var rows []*ThresholdSlab
	err := tx.Where("utility_id = ? AND tariff_config_id = ?", utilityId, tariffConfigId).
		Order("sort_order").Order("lower_limit").
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	slabs := make([]tariff.Slab, len(rows))
	for i, row := range rows {
		slabs[i] = row.Slab()
	}
	return rows, slabs, nil
}

// applySortOrderSteps writes a renumbering plan, step by step, inside tx.
func applySortOrderSteps(tx *gorm.DB, utilityId string, tariffConfigId int, steps []tariff.SortOrderStep) error {
	if len(steps) == 0 {
		return nil
	}
	for _, step := range steps {
		err := tx.Model(&ThresholdSlab{}).
			Where("utility_id = ? AND id = ?", utilityId, step.SlabID).
			UpdateColumn("sort_order", step.To).Error
		if err != nil {
			return err
		}
	}
	return PublishTariffEvent(tx, tariffConfigId, TariffReferenceTypeTariffConfig, TariffEventActionReorder, steps)
}

// ValidateThresholdSlab checks a slab write without saving it (id = 0 for a new slab).
func ValidateThresholdSlab(ctx context.Context, tariffConfigId int, id int, input *NewThresholdSlab) (*SlabValidation, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[TariffConfig](ctx, utilityId, tariffConfigId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	rows, slabs, err := loadSlabsTx(db.WithContext(ctx), utilityId, tariffConfigId)
	if err != nil {
		return nil, err
	}

	var (
		plan tariff.Plan
		errs tariff.FieldErrors
	)
	if id == 0 {
		plan, errs = tariff.PlanCreate(input.candidate(nil), slabs, slabOptions())
	} else {
		var current *ThresholdSlab
		for _, row := range rows {
			if row.ID == id {
				current = row
			}
		}
		if current == nil {
			return nil, utils.ErrorRecordNotFound
		}
		plan, errs, err = tariff.PlanUpdate(input.candidate(current), slabs, slabOptions())
		if err != nil {
			return nil, err
		}
	}
	return &SlabValidation{Valid: !errs.HasErrors(), Errors: errs, Plan: plan}, nil
}

func CreateThresholdSlab(ctx context.Context, tariffConfigId int, input *NewThresholdSlab) (*ThresholdSlab, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[TariffConfig](ctx, utilityId, tariffConfigId); err != nil {
		return nil, err
	}

	release, err := lockTariffConfig(ctx, tariffConfigId, "CreateThresholdSlab")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	_, slabs, err := loadSlabsTx(tx.WithContext(ctx), utilityId, tariffConfigId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	c := input.candidate(nil)
	plan, errs := tariff.PlanCreate(c, slabs, slabOptions())
	if errs.HasErrors() {
		tx.Rollback()
		return nil, errs
	}
	if err := applySortOrderSteps(tx.WithContext(ctx), utilityId, tariffConfigId, plan.Steps); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "ThresholdSlab", "CreateThresholdSlab", "apply sort order steps", plan.Steps, err)
		return nil, err
	}

	slab := ThresholdSlab{
		UtilityId:      utilityId,
		TariffConfigId: tariffConfigId,
		LowerLimit:     c.LowerLimit,
		UpperLimit:     tariff.PersistedUpperLimit(c.UpperLimit),
		Rate:           c.Rate,
		SortOrder:      plan.SortOrder,
		IsActive:       &c.IsActive,
	}
	if err := tx.WithContext(ctx).Create(&slab).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	slab.Range = slab.Slab().Range()
	if err := PublishTariffEvent(tx.WithContext(ctx), slab.ID, TariffReferenceTypeThresholdSlab, TariffEventActionCreate, slab); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(ctx, slab); err != nil {
		return nil, err
	}
	return &slab, nil
}

func UpdateThresholdSlab(ctx context.Context, id int, input *NewThresholdSlab) (*ThresholdSlab, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := utils.FetchModel[ThresholdSlab](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	release, err := lockTariffConfig(ctx, existing.TariffConfigId, "UpdateThresholdSlab")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	rows, slabs, err := loadSlabsTx(tx.WithContext(ctx), utilityId, existing.TariffConfigId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	var slab *ThresholdSlab
	for _, row := range rows {
		if row.ID == id {
			slab = row
		}
	}
	if slab == nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	c := input.candidate(slab)
	plan, errs, err := tariff.PlanUpdate(c, slabs, slabOptions())
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if errs.HasErrors() {
		tx.Rollback()
		return nil, errs
	}
	if err := applySortOrderSteps(tx.WithContext(ctx), utilityId, slab.TariffConfigId, plan.Steps); err != nil {
		tx.Rollback()
		config.LogError(config.GetLogger(), "ThresholdSlab", "UpdateThresholdSlab", "apply sort order steps", plan.Steps, err)
		return nil, err
	}

	err = tx.WithContext(ctx).Model(slab).Updates(map[string]interface{}{
		"LowerLimit": c.LowerLimit,
		"UpperLimit": tariff.PersistedUpperLimit(c.UpperLimit),
		"Rate":       c.Rate,
		"SortOrder":  plan.SortOrder,
		"IsActive":   c.IsActive,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	slab.Range = slab.Slab().Range()
	if err := PublishTariffEvent(tx.WithContext(ctx), slab.ID, TariffReferenceTypeThresholdSlab, TariffEventActionUpdate, slab); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(ctx, *slab); err != nil {
		return nil, err
	}
	return slab, nil
}

// ToggleActiveThresholdSlab switches a slab on or off. Switching on re-checks the
// slab against the active slabs of its configuration.
func ToggleActiveThresholdSlab(ctx context.Context, id int, isActive bool) (*ThresholdSlab, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := utils.FetchModel[ThresholdSlab](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	release, err := lockTariffConfig(ctx, existing.TariffConfigId, "ToggleActiveThresholdSlab")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	rows, slabs, err := loadSlabsTx(tx.WithContext(ctx), utilityId, existing.TariffConfigId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	var slab *ThresholdSlab
	for _, row := range rows {
		if row.ID == id {
			slab = row
		}
	}
	if slab == nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	if isActive && !utils.DereferencePtr(slab.IsActive, true) {
		if errs := tariff.ValidateActivation(slab.Slab(), slabs, slabOptions()); errs.HasErrors() {
			tx.Rollback()
			return nil, errs
		}
	}

	if err := tx.WithContext(ctx).Model(slab).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	actionType := HistoryActionInactive
	if isActive {
		actionType = HistoryActionActive
	}
	if err := createHistory(tx.WithContext(ctx), actionType, id, "threshold_slabs", nil, nil, "toggled ThresholdSlab"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), slab.ID, TariffReferenceTypeThresholdSlab, TariffEventActionUpdate, slab); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(ctx, *slab); err != nil {
		return nil, err
	}
	return slab, nil
}

// DeleteThresholdSlab removes a slab. Remaining sort orders are left as they are.
func DeleteThresholdSlab(ctx context.Context, id int) (*ThresholdSlab, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	result, err := utils.FetchModel[ThresholdSlab](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	release, err := lockTariffConfig(ctx, result.TariffConfigId, "DeleteThresholdSlab")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), result.ID, TariffReferenceTypeThresholdSlab, TariffEventActionDelete, result); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(ctx, *result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetThresholdSlab(ctx context.Context, id int) (*ThresholdSlab, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[ThresholdSlab](ctx, utilityId, id)
}

// GetThresholdSlabs lists the slabs of a configuration in sort order.
func GetThresholdSlabs(ctx context.Context, tariffConfigId int) ([]*ThresholdSlab, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[TariffConfig](ctx, utilityId, tariffConfigId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	rows, _, err := loadSlabsTx(db.WithContext(ctx), utilityId, tariffConfigId)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
