package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

/* Redis */

// store instance
func StoreRedis[T any](ctx context.Context, obj *T, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(ctx, key, obj, GetCacheLifespan())
}

// store list of a utility
func StoreRedisList[T any](ctx context.Context, obj []*T, utilityId string) error {
	key := GetTypeName[T]() + "List:" + utilityId
	return config.SetRedisObject(ctx, key, obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](ctx context.Context, id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(ctx, key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// retrieve list of a utility
// returns nil if does not exist
func RetrieveRedisList[T any](ctx context.Context, utilityId string) ([]*T, error) {
	key := GetTypeName[T]() + "List:" + utilityId
	var result []*T
	exists, err := config.GetRedisObject(ctx, key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList:$utility_id
func RemoveRedisList[T any](ctx context.Context, utilityId string) error {
	return config.RemoveRedisKey(ctx, GetTypeName[T]()+"List:"+utilityId)
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](ctx context.Context, id int) error {
	return config.RemoveRedisKey(ctx, GetTypeName[T]()+":"+fmt.Sprint(id))
}
