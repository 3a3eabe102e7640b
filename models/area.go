package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
)

type Area struct {
	ID              int       `gorm:"primary_key" json:"id"`
	UtilityId       string    `gorm:"index;size:64;not null" json:"utility_id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Zone            string    `gorm:"size:100" json:"zone"`
	CityCorporation string    `gorm:"size:100" json:"city_corporation"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewArea struct {
	Name            string `json:"name" binding:"required,max=100"`
	Zone            string `json:"zone" binding:"max=100"`
	CityCorporation string `json:"city_corporation" binding:"max=100"`
}

var ErrorAreaInUse = errors.New("area is used by scoring parameters")

// validate input for both create & update. (id = 0 for create)

func (input *NewArea) validate(ctx context.Context, utilityId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Area](ctx, utilityId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Area](ctx, utilityId, "name", strings.TrimSpace(input.Name), id); err != nil {
		return err
	}
	return nil
}

func CreateArea(ctx context.Context, input *NewArea) (*Area, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, utilityId, 0); err != nil {
		return nil, err
	}

	area := Area{
		UtilityId:       utilityId,
		Name:            strings.TrimSpace(input.Name),
		Zone:            strings.TrimSpace(input.Zone),
		CityCorporation: strings.TrimSpace(input.CityCorporation),
		IsActive:        utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Create(&area).Error
	if err != nil {
		return nil, err
	}

	return &area, nil
}

func UpdateArea(ctx context.Context, id int, input *NewArea) (*Area, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, utilityId, id); err != nil {
		return nil, err
	}

	area, err := utils.FetchModel[Area](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(area).Updates(map[string]interface{}{
		"Name":            strings.TrimSpace(input.Name),
		"Zone":            strings.TrimSpace(input.Zone),
		"CityCorporation": strings.TrimSpace(input.CityCorporation),
	}).Error
	if err != nil {
		return nil, err
	}

	if err := area.RemoveInstanceRedis(ctx); err != nil {
		return nil, err
	}
	return area, nil
}

func DeleteArea(ctx context.Context, id int) (*Area, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()

	result, err := utils.FetchModel[Area](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	// Do not delete while any ruleset scores this area
	count, err := utils.ResourceCountWhere[ScoringParam](ctx, utilityId, "area_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrorAreaInUse
	}

	// db action
	err = db.WithContext(ctx).Delete(result).Error
	if err != nil {
		return nil, err
	}

	if err := result.RemoveInstanceRedis(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func GetArea(ctx context.Context, id int) (*Area, error) {
	return GetResource[Area](ctx, id)
}

func GetAreas(ctx context.Context, name *string) ([]*Area, error) {

	results, err := ListAllResource[Area](ctx, "name")
	if err != nil {
		return nil, err
	}
	if name == nil || strings.TrimSpace(*name) == "" {
		return results, nil
	}

	needle := strings.ToLower(strings.TrimSpace(*name))
	var filtered []*Area
	for _, area := range results {
		if strings.Contains(strings.ToLower(area.Name), needle) {
			filtered = append(filtered, area)
		}
	}
	return filtered, nil
}

// GetAreaLookup maps the display name of every active area to its id.
func GetAreaLookup(ctx context.Context) (map[string]int, error) {

	areas, err := ListAllResource[Area](ctx, "name")
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]int, len(areas))
	for _, area := range areas {
		if area.IsActive != nil && !*area.IsActive {
			continue
		}
		lookup[area.Name] = area.ID
	}
	return lookup, nil
}

func ToggleActiveArea(ctx context.Context, id int, isActive bool) (*Area, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	return ToggleActiveModel[Area](ctx, utilityId, id, isActive)
}
