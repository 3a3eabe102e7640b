package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type thresholdSlabsReader struct {
	db *gorm.DB
}

// slabs come back in billing order per tariff config
func (r *thresholdSlabsReader) getThresholdSlabs(ctx context.Context, tariffConfigIds []int) []*dataloader.Result[[]*models.ThresholdSlab] {
	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return handleError[[]*models.ThresholdSlab](len(tariffConfigIds), err)
	}
	var results []models.ThresholdSlab
	err = r.db.WithContext(ctx).
		Where("utility_id = ? AND tariff_config_id IN ?", utilityId, tariffConfigIds).
		Order("sort_order, id").
		Find(&results).Error
	if err != nil {
		return handleError[[]*models.ThresholdSlab](len(tariffConfigIds), err)
	}

	return generateLoaderArrayResults(results, tariffConfigIds)
}

func GetThresholdSlabs(ctx context.Context, tariffConfigId int) ([]*models.ThresholdSlab, error) {
	loaders := For(ctx)
	return loaders.thresholdSlabsLoader.Load(ctx, tariffConfigId)()
}

func LoadThresholdSlabs(ctx context.Context, tariffConfigId int) func() ([]*models.ThresholdSlab, error) {
	loaders := For(ctx)
	return loaders.thresholdSlabsLoader.Load(ctx, tariffConfigId)
}
