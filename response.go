package main

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/scoring"
	"bitbucket.org/mmdatafocus/tariff_backend/tariff"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func respondValidation(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fields})
}

// respondError maps service errors onto status codes. Unknown errors are logged and returned as 400.
func respondError(c *gin.Context, funcName string, err error) {
	var fieldErrs tariff.FieldErrors
	if errors.As(err, &fieldErrs) {
		respondValidation(c, fieldErrs)
		return
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		respondValidation(c, bindingFields(err))
		return
	}
	if errors.Is(err, tariff.ErrNegativeConsumption) {
		respondValidation(c, map[string][]string{"consumption": {err.Error()}})
		return
	}
	var dupErr *scoring.DuplicateAreaError
	if errors.As(err, &dupErr) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, utils.ErrorUtilityRequired), errors.Is(err, utils.ErrorAdminRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, utils.ErrorLockNotObtained),
		errors.Is(err, models.ErrorAreaInUse),
		errors.Is(err, models.ErrorRulesetNotDraft),
		errors.Is(err, models.ErrorRulesetNotPending),
		errors.Is(err, models.ErrorRulesetNoParams),
		errors.Is(err, models.ErrorRulesetIsApproved),
		errors.Is(err, tariff.ErrNoActiveSlabs),
		utils.IsDuplicateKeyErr(err):
		status = http.StatusConflict
	default:
		config.LogError(config.GetLogger(), "Handlers", funcName, c.FullPath(), c.Params, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindingFields turns gin binding failures into the same shape as slab field errors.
func bindingFields(err error) map[string][]string {
	fields := map[string][]string{}
	for field, tag := range utils.ProcessValidationErrors(err) {
		fields[field] = append(fields[field], field+" failed on "+tag)
	}
	return fields
}

// bindJSON answers 422 for tag failures and 400 for malformed bodies.
func bindJSON(c *gin.Context, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			respondValidation(c, bindingFields(err))
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return false
	}
	return true
}

func paramId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryString(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}
