package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// input structs share their `binding` tags with gin
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// ValidateInput runs the `binding` struct tags of an input struct.
func ValidateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed on %s", ve.Field(), ve.Tag()))
			}
			return errors.New(strings.Join(parts, "; "))
		}
		return err
	}
	return nil
}

// check if id exists within the utility, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, utilityId string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, utilityId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

// check if ALL ids exist within the utility, return RecordNotFound Error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, utilityId string, ids []ID) error {
	unqIds := UniqueSlice(ids)
	if len(unqIds) == 0 {
		return nil
	}

	count, err := ResourceCountWhere[M](ctx, utilityId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}
	return nil
}

func ValidateUnique[T any](ctx context.Context, utilityId string, column string, value interface{}, exceptId int) error {
	var count int64
	var err error
	if exceptId == 0 {
		count, err = ResourceCountWhere[T](ctx, utilityId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, utilityId, column+" = ? AND NOT id = ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE utility_id = ? AND $condition
func ResourceCountWhere[T any](ctx context.Context, utilityId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	if utilityId != "" {
		dbCtx = dbCtx.Where("utility_id = ?", utilityId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	var count int64
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
