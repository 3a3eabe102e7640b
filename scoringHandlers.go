package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/scoring"
	"github.com/gin-gonic/gin"
)

const (
	maxImportFileSize = 10 << 20
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func addScoringParamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewScoringParam
		if !bindJSON(c, &input) {
			return
		}
		ruleset, err := models.AddScoringParam(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "AddScoringParam", err)
			return
		}
		respondRuleset(c, http.StatusCreated, "AddScoringParam", ruleset)
	}
}

func updateScoringParamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewScoringParam
		if !bindJSON(c, &input) {
			return
		}
		ruleset, err := models.UpdateScoringParam(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "UpdateScoringParam", err)
			return
		}
		respondRuleset(c, http.StatusOK, "UpdateScoringParam", ruleset)
	}
}

func removeScoringParamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ruleset, err := models.RemoveScoringParam(c.Request.Context(), id)
		if err != nil {
			respondError(c, "RemoveScoringParam", err)
			return
		}
		respondRuleset(c, http.StatusOK, "RemoveScoringParam", ruleset)
	}
}

func respondRuleset(c *gin.Context, status int, funcName string, ruleset *models.Ruleset) {
	view, err := newRulesetView(c.Request.Context(), ruleset)
	if err != nil {
		respondError(c, funcName, err)
		return
	}
	respondData(c, status, view)
}

// readUpload returns the name and content of the multipart "file" field.
func readUpload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return "", nil, false
	}
	if fh.Size > maxImportFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is larger than 10MB"})
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImportFileSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}
	return fh.Filename, data, true
}

// importScoringParamsHandler answers 200 even when rows fail; the parse result carries the errors.
func importScoringParamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		filename, data, ok := readUpload(c)
		if !ok {
			return
		}
		result, err := models.ImportScoringParams(c.Request.Context(), id, filename, data)
		if err != nil {
			respondError(c, "ImportScoringParams", err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}

func parseScoringFileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filename, data, ok := readUpload(c)
		if !ok {
			return
		}
		lookup, err := models.GetAreaLookup(c.Request.Context())
		if err != nil {
			respondError(c, "ParseScoringFile", err)
			return
		}
		result, err := scoring.ParseFile(filename, data, lookup)
		if err != nil {
			respondError(c, "ParseScoringFile", err)
			return
		}
		if result.Success {
			if err := scoring.CheckDuplicateAreas(result.Data); err != nil {
				result.Success = false
				result.Errors = append(result.Errors, err.Error())
			}
		}
		respondData(c, http.StatusOK, result)
	}
}

func exportScoringParamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := models.ExportScoringParamsXLSX(c.Request.Context(), id, &buf); err != nil {
			respondError(c, "ExportScoringParamsXLSX", err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ruleset-%d.xlsx"`, id))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

func scoringTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Disposition", `attachment; filename="scoring-template.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(scoring.GenerateCSVTemplate()))
	}
}
