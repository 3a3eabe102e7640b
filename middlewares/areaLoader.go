package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type areaReader struct {
	db *gorm.DB
}

func (r *areaReader) getAreas(ctx context.Context, ids []int) []*dataloader.Result[*models.Area] {
	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return handleError[*models.Area](len(ids), err)
	}
	var results []models.Area
	err = r.db.WithContext(ctx).
		Where("utility_id = ? AND id IN ?", utilityId, ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Area](len(ids), err)
	}

	return generateLoaderResults(results, ids)
}

func GetArea(ctx context.Context, id int) (*models.Area, error) {
	loaders := For(ctx)
	return loaders.AreaLoader.Load(ctx, id)()
}

func GetAreas(ctx context.Context, ids []int) ([]*models.Area, []error) {
	loaders := For(ctx)
	return loaders.AreaLoader.LoadMany(ctx, ids)()
}
