package models

import (
	"context"

	"bitbucket.org/mmdatafocus/tariff_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis(ctx context.Context) error // remove one
	RemoveAllRedis(ctx context.Context) error      // remove list
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](ctx context.Context, obj T) error {
	if err := obj.RemoveInstanceRedis(ctx); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(ctx); err != nil {
		return err
	}
	return nil
}

func (obj Area) RemoveInstanceRedis(ctx context.Context) error {
	return utils.RemoveRedisItem[Area](ctx, obj.ID)
}

func (obj Area) RemoveAllRedis(ctx context.Context) error {
	return utils.RemoveRedisList[Area](ctx, obj.UtilityId)
}

func (obj TariffConfig) RemoveInstanceRedis(ctx context.Context) error {
	return utils.RemoveRedisItem[TariffConfig](ctx, obj.ID)
}

func (obj TariffConfig) RemoveAllRedis(ctx context.Context) error {
	return utils.RemoveRedisList[TariffConfig](ctx, obj.UtilityId)
}

// slabs are cached with their tariff configuration
func (obj ThresholdSlab) RemoveInstanceRedis(ctx context.Context) error {
	return utils.RemoveRedisItem[TariffConfig](ctx, obj.TariffConfigId)
}

func (obj ThresholdSlab) RemoveAllRedis(ctx context.Context) error {
	return utils.RemoveRedisList[TariffConfig](ctx, obj.UtilityId)
}
