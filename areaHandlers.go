package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"github.com/gin-gonic/gin"
)

type toggleActiveInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func getAreasHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		areas, err := models.GetAreas(c.Request.Context(), queryString(c, "name"))
		if err != nil {
			respondError(c, "GetAreas", err)
			return
		}
		respondData(c, http.StatusOK, areas)
	}
}

func getAreaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		area, err := models.GetArea(c.Request.Context(), id)
		if err != nil {
			respondError(c, "GetArea", err)
			return
		}
		respondData(c, http.StatusOK, area)
	}
}

func createAreaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewArea
		if !bindJSON(c, &input) {
			return
		}
		area, err := models.CreateArea(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "CreateArea", err)
			return
		}
		respondData(c, http.StatusCreated, area)
	}
}

func updateAreaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewArea
		if !bindJSON(c, &input) {
			return
		}
		area, err := models.UpdateArea(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "UpdateArea", err)
			return
		}
		respondData(c, http.StatusOK, area)
	}
}

func deleteAreaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		area, err := models.DeleteArea(c.Request.Context(), id)
		if err != nil {
			respondError(c, "DeleteArea", err)
			return
		}
		respondData(c, http.StatusOK, area)
	}
}

func toggleActiveAreaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input toggleActiveInput
		if !bindJSON(c, &input) {
			return
		}
		area, err := models.ToggleActiveArea(c.Request.Context(), id, *input.IsActive)
		if err != nil {
			respondError(c, "ToggleActiveArea", err)
			return
		}
		respondData(c, http.StatusOK, area)
	}
}
