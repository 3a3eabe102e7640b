package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"gorm.io/gorm"
)

type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	UtilityId     string    `gorm:"index;not null" json:"utility_id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	AdminId       int       `gorm:"index;not null" json:"admin_id"`
	AdminName     string    `gorm:"size:100" json:"admin_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	HistoryActionCreate   = "CREATE"
	HistoryActionUpdate   = "UPDATE"
	HistoryActionDelete   = "DELETE"
	HistoryActionActive   = "*ACTIVE*"
	HistoryActionInactive = "*INACTIVE*"
)

func createHistory(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) (err error) {

	var history History

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	// utility, admin id and name come from the session
	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return err
	}
	adminId, ok := utils.GetAdminIdFromContext(ctx)
	if !ok {
		return utils.ErrorAdminRequired
	}
	adminName, _ := utils.GetAdminNameFromContext(ctx)

	history.UtilityId = utilityId
	history.ActionType = actionType
	history.Before = string(b)
	history.After = string(a)
	history.Description = description
	history.ReferenceID = referenceId
	history.ReferenceType = referenceType
	history.AdminId = adminId
	history.AdminName = adminName

	return tx.Session(&gorm.Session{NewDB: true}).Create(&history).Error
}

func SaveHistoryCreate(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createHistory(tx, HistoryActionCreate, id, tx.Statement.Table, nil, obj, description)
}

func SaveHistoryUpdate(tx *gorm.DB, id int, currentValue interface{}, description string) error {
	var newValue = tx.Statement.Dest
	return createHistory(tx, HistoryActionUpdate, id, tx.Statement.Table, currentValue, newValue, description)
}

func SaveHistoryDelete(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createHistory(tx, HistoryActionDelete, id, tx.Statement.Table, obj, nil, description)
}

// GetHistories lists the audit trail of one record, newest first.
func GetHistories(ctx context.Context, referenceType string, referenceId int) ([]*History, error) {
	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*History
	err = db.WithContext(ctx).
		Where("utility_id = ? AND reference_type = ? AND reference_id = ?", utilityId, referenceType, referenceId).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
