package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
)

// first find in redis, then in db, using ctx's utility_id in WHERE, cache result
// (may return RecordNotFound error)
func GetResource[T Resource](ctx context.Context, id int, associations ...string) (*T, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	// find in redis
	result, err := utils.RetrieveRedis[T](ctx, id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, utilityId, id, associations...)
		if err != nil {
			return nil, err
		}

		// store in redis
		if err := utils.StoreRedis[T](ctx, result, id); err != nil {
			return nil, err
		}
	} else {
		// if found in redis
		// check if utility ids match
		if (*result).GetUtilityId() != utilityId {
			return nil, errors.New("cannot access resource owned by other utility")
		}
	}

	return result, nil
}

// list all resources, redis or db, cache result
func ListAllResource[ModelT any](ctx context.Context, orders ...string) ([]*ModelT, error) {

	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}

	// first try redis cache
	results, err := utils.RetrieveRedisList[ModelT](ctx, utilityId)
	if err != nil {
		return nil, err
	}
	// if not exists in redis
	if results == nil {
		// fetch from db
		db := config.GetDB()
		dbCtx := db.WithContext(ctx).Where("utility_id = ?", utilityId)
		for _, order := range orders {
			dbCtx = dbCtx.Order(order)
		}
		results = []*ModelT{}
		if err = dbCtx.Find(&results).Error; err != nil {
			return nil, err
		}

		// caching the result
		if err := utils.StoreRedisList[ModelT](ctx, results, utilityId); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func ToggleActiveModel[T RedisCleaner](ctx context.Context, utilityId string, id int, isActive bool) (*T, error) {

	db := config.GetDB()

	// fetch model before updating
	result, err := utils.FetchModel[T](ctx, utilityId, id)
	if err != nil {
		return nil, err
	}

	// update db
	tx := db.Begin()
	Tx := tx.WithContext(ctx).Model(result).
		UpdateColumn("IsActive", isActive)
	if Tx.Error != nil {
		tx.Rollback()
		return nil, Tx.Error
	}

	referenceType := Tx.Statement.Table
	actionType := HistoryActionInactive
	if isActive {
		actionType = HistoryActionActive
	}

	// create history without hook
	if err := createHistory(tx.WithContext(ctx), actionType, id, referenceType, nil, nil, "toggled "+utils.GetTypeName[T]()); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	// clear cache
	if err := RemoveRedisBoth(ctx, *result); err != nil {
		return nil, err
	}
	return result, nil
}
