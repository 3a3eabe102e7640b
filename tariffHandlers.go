package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/tariff_backend/middlewares"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type calculateChargeInput struct {
	Consumption *decimal.Decimal `json:"consumption" binding:"required"`
}

func getTariffConfigsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		configs, err := models.GetTariffConfigs(ctx)
		if err != nil {
			respondError(c, "GetTariffConfigs", err)
			return
		}
		if c.Query("include") != "slabs" {
			respondData(c, http.StatusOK, configs)
			return
		}

		thunks := make([]func() ([]*models.ThresholdSlab, error), len(configs))
		for i, tc := range configs {
			thunks[i] = middlewares.LoadThresholdSlabs(ctx, tc.ID)
		}
		results := make([]*models.TariffConfig, len(configs))
		for i, tc := range configs {
			slabs, err := thunks[i]()
			if err != nil {
				respondError(c, "GetTariffConfigs", err)
				return
			}
			copied := *tc
			copied.Slabs = slabs
			results[i] = &copied
		}
		respondData(c, http.StatusOK, results)
	}
}

func getTariffConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		tc, err := models.GetTariffConfig(c.Request.Context(), id)
		if err != nil {
			respondError(c, "GetTariffConfig", err)
			return
		}
		respondData(c, http.StatusOK, tc)
	}
}

func createTariffConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTariffConfig
		if !bindJSON(c, &input) {
			return
		}
		tc, err := models.CreateTariffConfig(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "CreateTariffConfig", err)
			return
		}
		respondData(c, http.StatusCreated, tc)
	}
}

func updateTariffConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewTariffConfig
		if !bindJSON(c, &input) {
			return
		}
		tc, err := models.UpdateTariffConfig(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "UpdateTariffConfig", err)
			return
		}
		respondData(c, http.StatusOK, tc)
	}
}

func deleteTariffConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		tc, err := models.DeleteTariffConfig(c.Request.Context(), id)
		if err != nil {
			respondError(c, "DeleteTariffConfig", err)
			return
		}
		respondData(c, http.StatusOK, tc)
	}
}

func toggleActiveTariffConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input toggleActiveInput
		if !bindJSON(c, &input) {
			return
		}
		tc, err := models.ToggleActiveTariffConfig(c.Request.Context(), id, *input.IsActive)
		if err != nil {
			respondError(c, "ToggleActiveTariffConfig", err)
			return
		}
		respondData(c, http.StatusOK, tc)
	}
}

func calculateTariffChargeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input calculateChargeInput
		if !bindJSON(c, &input) {
			return
		}
		charge, err := models.CalculateTariffCharge(c.Request.Context(), id, *input.Consumption)
		if err != nil {
			respondError(c, "CalculateTariffCharge", err)
			return
		}
		respondData(c, http.StatusOK, charge)
	}
}

func getThresholdSlabsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		slabs, err := models.GetThresholdSlabs(c.Request.Context(), id)
		if err != nil {
			respondError(c, "GetThresholdSlabs", err)
			return
		}
		respondData(c, http.StatusOK, slabs)
	}
}

func createThresholdSlabHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewThresholdSlab
		if !bindJSON(c, &input) {
			return
		}
		slab, err := models.CreateThresholdSlab(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "CreateThresholdSlab", err)
			return
		}
		respondData(c, http.StatusCreated, slab)
	}
}

// validateThresholdSlabHandler dry runs a new slab. The result is 200 whether or not it is valid.
func validateThresholdSlabHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewThresholdSlab
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.ValidateThresholdSlab(c.Request.Context(), id, 0, &input)
		if err != nil {
			respondError(c, "ValidateThresholdSlab", err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}

func validateThresholdSlabUpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewThresholdSlab
		if !bindJSON(c, &input) {
			return
		}
		ctx := c.Request.Context()
		slab, err := models.GetThresholdSlab(ctx, id)
		if err != nil {
			respondError(c, "ValidateThresholdSlab", err)
			return
		}
		result, err := models.ValidateThresholdSlab(ctx, slab.TariffConfigId, id, &input)
		if err != nil {
			respondError(c, "ValidateThresholdSlab", err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}

func updateThresholdSlabHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewThresholdSlab
		if !bindJSON(c, &input) {
			return
		}
		slab, err := models.UpdateThresholdSlab(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "UpdateThresholdSlab", err)
			return
		}
		respondData(c, http.StatusOK, slab)
	}
}

func deleteThresholdSlabHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		slab, err := models.DeleteThresholdSlab(c.Request.Context(), id)
		if err != nil {
			respondError(c, "DeleteThresholdSlab", err)
			return
		}
		respondData(c, http.StatusOK, slab)
	}
}

func toggleActiveThresholdSlabHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input toggleActiveInput
		if !bindJSON(c, &input) {
			return
		}
		slab, err := models.ToggleActiveThresholdSlab(c.Request.Context(), id, *input.IsActive)
		if err != nil {
			respondError(c, "ToggleActiveThresholdSlab", err)
			return
		}
		respondData(c, http.StatusOK, slab)
	}
}
