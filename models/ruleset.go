package models

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"gorm.io/gorm"
)

// Ruleset is a versioned batch of area scoring parameters.
// Parameters can only change while the ruleset is a draft.
type Ruleset struct {
	ID          int             `gorm:"primary_key" json:"id"`
	UtilityId   string          `gorm:"index;size:64;not null" json:"utility_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Version     int             `gorm:"not null;default:1" json:"version"`
	Status      RulesetStatus   `gorm:"size:20;not null;default:'Draft'" json:"status"`
	ParentId    *int            `gorm:"index" json:"parent_id"`
	SubmittedAt *time.Time      `json:"submitted_at"`
	ApprovedAt  *time.Time      `json:"approved_at"`
	ApprovedBy  *int            `json:"approved_by"`
	Params      []*ScoringParam `gorm:"foreignKey:RulesetId" json:"params,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRuleset struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

var (
	ErrorRulesetNotDraft    = errors.New("ruleset is not a draft, clone it to make changes")
	ErrorRulesetNotPending  = errors.New("ruleset is not pending approval")
	ErrorRulesetNoParams    = errors.New("ruleset has no scoring parameters")
	ErrorRulesetIsApproved  = errors.New("approved ruleset cannot be deleted")
	ErrorRulesetStatusInput = errors.New("invalid ruleset status")
)

const rulesetLockType = "ruleset"

func (input *NewRuleset) validate(ctx context.Context, utilityId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Ruleset](ctx, utilityId, id); err != nil {
			return err
		}
	}
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

func lockRuleset(ctx context.Context, id int, functionName string) (func(), error) {
	return utils.ObtainLock(ctx, rulesetLockType, strconv.Itoa(id), "Ruleset", functionName)
}

// fetch ruleset inside tx and make sure parameters may still change
func fetchDraftRulesetTx(tx *gorm.DB, utilityId string, id int) (*Ruleset, error) {
	ruleset, err := utils.FetchModelTx[Ruleset](tx, utilityId, id)
	if err != nil {
		return nil, err
	}
	if ruleset.Status != RulesetStatusDraft {
		return nil, ErrorRulesetNotDraft
	}
	return ruleset, nil
}

func CreateRuleset(ctx context.Context, input *NewRuleset) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, utilityId, 0); err != nil {
		return nil, err
	}

	ruleset := Ruleset{
		UtilityId:   utilityId,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Version:     1,
		Status:      RulesetStatusDraft,
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&ruleset).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), ruleset.ID, TariffReferenceTypeRuleset, TariffEventActionCreate, ruleset); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &ruleset, nil
}

func UpdateRuleset(ctx context.Context, id int, input *NewRuleset) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, utilityId, id); err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	ruleset, err := fetchDraftRulesetTx(tx.WithContext(ctx), utilityId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	err = tx.WithContext(ctx).Model(ruleset).Updates(map[string]interface{}{
		"Name":        strings.TrimSpace(input.Name),
		"Description": input.Description,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), ruleset.ID, TariffReferenceTypeRuleset, TariffEventActionUpdate, ruleset); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return ruleset, nil
}

func DeleteRuleset(ctx context.Context, id int) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	release, err := lockRuleset(ctx, id, "DeleteRuleset")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	result, err := utils.FetchModel[Ruleset](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}
	if result.Status == RulesetStatusApproved {
		return nil, ErrorRulesetIsApproved
	}

	// db action
	tx := db.Begin()
	err = tx.WithContext(ctx).Where("utility_id = ? AND ruleset_id = ?", utilityId, id).Delete(&ScoringParam{}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), result.ID, TariffReferenceTypeRuleset, TariffEventActionDelete, result); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}

// GetRuleset returns the ruleset with its scoring parameters ordered by area.
func GetRuleset(ctx context.Context, id int) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var result Ruleset
	err = db.WithContext(ctx).
		Where("utility_id = ?", utilityId).
		Preload("Params", func(db *gorm.DB) *gorm.DB {
			return db.Order("area_id")
		}).
		First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func GetRulesets(ctx context.Context, name *string, status *RulesetStatus) ([]*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*Ruleset

	dbCtx := db.WithContext(ctx).Where("utility_id = ?", utilityId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if status != nil {
		if !status.IsValid() {
			return nil, ErrorRulesetStatusInput
		}
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	err = dbCtx.Order("name").Order("version DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// changeRulesetStatus moves a ruleset from one status to another and records the event.
func changeRulesetStatus(ctx context.Context, id int, from RulesetStatus, to RulesetStatus, action TariffEventAction, functionName string) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	release, err := lockRuleset(ctx, id, functionName)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	ruleset, err := utils.FetchModelTx[Ruleset](tx.WithContext(ctx), utilityId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if ruleset.Status != from {
		tx.Rollback()
		if from == RulesetStatusDraft {
			return nil, ErrorRulesetNotDraft
		}
		return nil, ErrorRulesetNotPending
	}

	now := time.Now().UTC()
	changes := map[string]interface{}{"Status": to}
	switch to {
	case RulesetStatusPending:
		var count int64
		if err := tx.WithContext(ctx).Model(&ScoringParam{}).
			Where("utility_id = ? AND ruleset_id = ?", utilityId, id).
			Count(&count).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if count == 0 {
			tx.Rollback()
			return nil, ErrorRulesetNoParams
		}
		changes["SubmittedAt"] = &now
	case RulesetStatusApproved:
		adminId, _ := utils.GetAdminIdFromContext(ctx)
		changes["ApprovedAt"] = &now
		changes["ApprovedBy"] = &adminId
	case RulesetStatusDraft:
		changes["SubmittedAt"] = nil
	}

	if err := tx.WithContext(ctx).Model(ruleset).Updates(changes).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), ruleset.ID, TariffReferenceTypeRuleset, action, ruleset); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "Ruleset", functionName, "commit status change", id, err)
		return nil, err
	}
	return ruleset, nil
}

func SubmitRuleset(ctx context.Context, id int) (*Ruleset, error) {
	return changeRulesetStatus(ctx, id, RulesetStatusDraft, RulesetStatusPending, TariffEventActionUpdate, "SubmitRuleset")
}

func ApproveRuleset(ctx context.Context, id int) (*Ruleset, error) {
	return changeRulesetStatus(ctx, id, RulesetStatusPending, RulesetStatusApproved, TariffEventActionApprove, "ApproveRuleset")
}

func RejectRuleset(ctx context.Context, id int) (*Ruleset, error) {
	return changeRulesetStatus(ctx, id, RulesetStatusPending, RulesetStatusDraft, TariffEventActionUpdate, "RejectRuleset")
}

// CloneRuleset copies a ruleset and its parameters into a new draft one version up.
func CloneRuleset(ctx context.Context, id int) (*Ruleset, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	source, err := GetRuleset(ctx, id)
	if err != nil {
		return nil, err
	}

	// next version within the family of the same name
	db := config.GetDB()
	var latest int
	err = db.WithContext(ctx).Model(&Ruleset{}).
		Where("utility_id = ? AND name = ?", utilityId, source.Name).
		Select("COALESCE(MAX(version), 0)").
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}

	clone := Ruleset{
		UtilityId:   utilityId,
		Name:        source.Name,
		Description: source.Description,
		Version:     latest + 1,
		Status:      RulesetStatusDraft,
		ParentId:    &source.ID,
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&clone).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, param := range source.Params {
		copied := param.copyTo(clone.ID)
		if err := tx.WithContext(ctx).Create(&copied).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		clone.Params = append(clone.Params, &copied)
	}
	if err := PublishTariffEvent(tx.WithContext(ctx), clone.ID, TariffReferenceTypeRuleset, TariffEventActionCreate, clone); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &clone, nil
}
