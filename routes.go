package main

import "github.com/gin-gonic/gin"

func registerRoutes(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/areas", getAreasHandler())
	api.POST("/areas", createAreaHandler())
	api.GET("/areas/:id", getAreaHandler())
	api.PUT("/areas/:id", updateAreaHandler())
	api.DELETE("/areas/:id", deleteAreaHandler())
	api.POST("/areas/:id/toggle-active", toggleActiveAreaHandler())

	api.GET("/rulesets", getRulesetsHandler())
	api.POST("/rulesets", createRulesetHandler())
	api.GET("/rulesets/:id", getRulesetHandler())
	api.PUT("/rulesets/:id", updateRulesetHandler())
	api.DELETE("/rulesets/:id", deleteRulesetHandler())
	api.POST("/rulesets/:id/submit", rulesetActionHandler("SubmitRuleset"))
	api.POST("/rulesets/:id/approve", rulesetActionHandler("ApproveRuleset"))
	api.POST("/rulesets/:id/reject", rulesetActionHandler("RejectRuleset"))
	api.POST("/rulesets/:id/clone", rulesetActionHandler("CloneRuleset"))
	api.POST("/rulesets/:id/recalculate", rulesetActionHandler("RecalculateRuleset"))
	api.GET("/rulesets/:id/history", getRulesetHistoryHandler())

	api.POST("/rulesets/:id/params", addScoringParamHandler())
	api.PUT("/scoring-params/:id", updateScoringParamHandler())
	api.DELETE("/scoring-params/:id", removeScoringParamHandler())
	api.POST("/rulesets/:id/import", importScoringParamsHandler())
	api.GET("/rulesets/:id/export", exportScoringParamsHandler())
	api.POST("/scoring/parse", parseScoringFileHandler())
	api.GET("/scoring/template", scoringTemplateHandler())

	api.GET("/tariff-configs", getTariffConfigsHandler())
	api.POST("/tariff-configs", createTariffConfigHandler())
	api.GET("/tariff-configs/:id", getTariffConfigHandler())
	api.PUT("/tariff-configs/:id", updateTariffConfigHandler())
	api.DELETE("/tariff-configs/:id", deleteTariffConfigHandler())
	api.POST("/tariff-configs/:id/toggle-active", toggleActiveTariffConfigHandler())
	api.POST("/tariff-configs/:id/calculate", calculateTariffChargeHandler())
	api.GET("/tariff-configs/:id/slabs", getThresholdSlabsHandler())
	api.POST("/tariff-configs/:id/slabs", createThresholdSlabHandler())
	api.POST("/tariff-configs/:id/slabs/validate", validateThresholdSlabHandler())

	api.PUT("/slabs/:id", updateThresholdSlabHandler())
	api.DELETE("/slabs/:id", deleteThresholdSlabHandler())
	api.POST("/slabs/:id/toggle-active", toggleActiveThresholdSlabHandler())
	api.POST("/slabs/:id/validate", validateThresholdSlabUpdateHandler())
}
