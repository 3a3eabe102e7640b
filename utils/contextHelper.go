package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/tariff_backend/appctx"
)

var (
	ContextKeyToken           = appctx.ContextKeyToken
	ContextKeyUtilityId       = appctx.ContextKeyUtilityId
	ContextKeyAdminId         = appctx.ContextKeyAdminId
	ContextKeyAdminName       = appctx.ContextKeyAdminName
	ContextKeyCorrelationId   = appctx.ContextKeyCorrelationId
	ContextKeySkipTenantScope = appctx.ContextKeySkipTenantScope
)

func GetUtilityIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUtilityId)
}

func GetAdminIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyAdminId)
}

func GetAdminNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyAdminName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUtilityIdInContext(ctx context.Context, utilityId string) context.Context {
	return appctx.Set(ctx, ContextKeyUtilityId, utilityId)
}

func SetAdminIdInContext(ctx context.Context, adminId int) context.Context {
	return appctx.Set(ctx, ContextKeyAdminId, adminId)
}

func SetAdminNameInContext(ctx context.Context, adminName string) context.Context {
	return appctx.Set(ctx, ContextKeyAdminName, adminName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetSkipTenantScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, skip)
}

// RequireUtilityId returns the tenant of the request or ErrorUtilityRequired.
func RequireUtilityId(ctx context.Context) (string, error) {
	utilityId, ok := GetUtilityIdFromContext(ctx)
	if !ok || utilityId == "" {
		return "", ErrorUtilityRequired
	}
	return utilityId, nil
}
