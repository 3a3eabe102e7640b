package utils

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (utilityId is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, utilityId string, id int, associations ...string) (*T, error) {
	return FetchModelTx[T](config.GetDB().WithContext(ctx), utilityId, id, associations...)
}

// same as FetchModel, inside an open transaction
func FetchModelTx[T any](tx *gorm.DB, utilityId string, id int, associations ...string) (*T, error) {
	dbCtx := tx.Where("utility_id = ?", utilityId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
