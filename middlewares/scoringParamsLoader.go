package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type scoringParamsReader struct {
	db *gorm.DB
}

func (r *scoringParamsReader) getScoringParams(ctx context.Context, rulesetIds []int) []*dataloader.Result[[]*models.ScoringParam] {
	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return handleError[[]*models.ScoringParam](len(rulesetIds), err)
	}
	var results []models.ScoringParam
	err = r.db.WithContext(ctx).
		Where("utility_id = ? AND ruleset_id IN ?", utilityId, rulesetIds).
		Order("area_id").
		Find(&results).Error
	if err != nil {
		return handleError[[]*models.ScoringParam](len(rulesetIds), err)
	}

	return generateLoaderArrayResults(results, rulesetIds)
}

func GetScoringParams(ctx context.Context, rulesetId int) ([]*models.ScoringParam, error) {
	loaders := For(ctx)
	return loaders.scoringParamsLoader.Load(ctx, rulesetId)()
}

// LoadScoringParams queues a load and returns the thunk, so callers can batch many rulesets.
func LoadScoringParams(ctx context.Context, rulesetId int) func() ([]*models.ScoringParam, error) {
	loaders := For(ctx)
	return loaders.scoringParamsLoader.Load(ctx, rulesetId)
}
