package models

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/tariff"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/shopspring/decimal"
)

// TariffConfig is a named set of threshold slabs billed in one mode.
type TariffConfig struct {
	ID          int              `gorm:"primary_key" json:"id"`
	UtilityId   string           `gorm:"index;size:64;not null" json:"utility_id"`
	Name        string           `gorm:"size:100;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	BillingMode BillingMode      `gorm:"size:20;not null;default:'Tiered'" json:"billing_mode"`
	Unit        string           `gorm:"size:20" json:"unit"`
	IsActive    *bool            `gorm:"not null;default:true" json:"is_active"`
	Slabs       []*ThresholdSlab `gorm:"foreignKey:TariffConfigId" json:"slabs,omitempty"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTariffConfig struct {
	Name        string      `json:"name" binding:"required,max=100"`
	Description string      `json:"description"`
	BillingMode BillingMode `json:"billing_mode" binding:"required"`
	Unit        string      `json:"unit" binding:"max=20"`
}

var ErrorInvalidBillingMode = errors.New("billing mode must be Tiered or Threshold")

func (input *NewTariffConfig) validate(ctx context.Context, utilityId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[TariffConfig](ctx, utilityId, id); err != nil {
			return err
		}
	}
	if !input.BillingMode.IsValid() {
		return ErrorInvalidBillingMode
	}
	// name
	if err := utils.ValidateUnique[TariffConfig](ctx, utilityId, "name", strings.TrimSpace(input.Name), id); err != nil {
		return err
	}
	return nil
}

// sort slabs by sort order, then lower limit
func sortSlabs(slabs []*ThresholdSlab) {
	sort.SliceStable(slabs, func(i, j int) bool {
		if slabs[i].SortOrder != slabs[j].SortOrder {
			return slabs[i].SortOrder < slabs[j].SortOrder
		}
		return slabs[i].LowerLimit.LessThan(slabs[j].LowerLimit)
	})
}

func CreateTariffConfig(ctx context.Context, input *NewTariffConfig) (*TariffConfig, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, utilityId, 0); err != nil {
		return nil, err
	}

	tariffConfig := TariffConfig{
		UtilityId:   utilityId,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		BillingMode: input.BillingMode,
		Unit:        input.Unit,
		IsActive:    utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&tariffConfig).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), tariffConfig.ID, TariffReferenceTypeTariffConfig, TariffEventActionCreate, tariffConfig); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &tariffConfig, nil
}

func UpdateTariffConfig(ctx context.Context, id int, input *NewTariffConfig) (*TariffConfig, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, utilityId, id); err != nil {
		return nil, err
	}

	tariffConfig, err := utils.FetchModel[TariffConfig](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	err = tx.WithContext(ctx).Model(tariffConfig).Updates(map[string]interface{}{
		"Name":        strings.TrimSpace(input.Name),
		"Description": input.Description,
		"BillingMode": input.BillingMode,
		"Unit":        input.Unit,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), tariffConfig.ID, TariffReferenceTypeTariffConfig, TariffEventActionUpdate, tariffConfig); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(ctx, *tariffConfig); err != nil {
		return nil, err
	}
	return tariffConfig, nil
}

func DeleteTariffConfig(ctx context.Context, id int) (*TariffConfig, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	release, err := lockTariffConfig(ctx, id, "DeleteTariffConfig")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	result, err := utils.FetchModel[TariffConfig](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	// db action
	tx := db.Begin()
	var slabs []*ThresholdSlab
	if err := tx.WithContext(ctx).Where("utility_id = ? AND tariff_config_id = ?", utilityId, id).Find(&slabs).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, slab := range slabs {
		if err := tx.WithContext(ctx).Delete(slab).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), result.ID, TariffReferenceTypeTariffConfig, TariffEventActionDelete, result); err != nil {
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

// GetTariffConfig returns the configuration with its slabs in sort order.
func GetTariffConfig(ctx context.Context, id int) (*TariffConfig, error) {
	result, err := GetResource[TariffConfig](ctx, id, "Slabs")
	if err != nil {
		return nil, err
	}
	sortSlabs(result.Slabs)
	return result, nil
}

func GetTariffConfigs(ctx context.Context) ([]*TariffConfig, error) {
	return ListAllResource[TariffConfig](ctx, "name")
}

func ToggleActiveTariffConfig(ctx context.Context, id int, isActive bool) (*TariffConfig, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	return ToggleActiveModel[TariffConfig](ctx, utilityId, id, isActive)
}

// CalculateTariffCharge bills a consumption against the active slabs of a configuration.
func CalculateTariffCharge(ctx context.Context, id int, consumption decimal.Decimal) (*tariff.Charge, error) {

	tariffConfig, err := GetTariffConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	slabs := make([]tariff.Slab, len(tariffConfig.Slabs))
	for i, s := range tariffConfig.Slabs {
		slabs[i] = s.Slab()
	}
	return tariff.CalculateCharge(consumption, slabs, tariffConfig.BillingMode)
}
