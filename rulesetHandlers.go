package main

import (
	"context"
	"net/http"

	"bitbucket.org/mmdatafocus/tariff_backend/middlewares"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"github.com/gin-gonic/gin"
)

type scoringParamView struct {
	*models.ScoringParam
	AreaName string `json:"area_name"`
}

type rulesetView struct {
	*models.Ruleset
	Params []scoringParamView `json:"params"`
}

// withAreaNames resolves the area of every param in one batched query.
func withAreaNames(ctx context.Context, params []*models.ScoringParam) ([]scoringParamView, error) {
	if len(params) == 0 {
		return []scoringParamView{}, nil
	}
	ids := make([]int, len(params))
	for i, p := range params {
		ids[i] = p.AreaId
	}
	areas, errs := middlewares.GetAreas(ctx, ids)
	views := make([]scoringParamView, len(params))
	for i, p := range params {
		if errs != nil && errs[i] != nil {
			return nil, errs[i]
		}
		views[i] = scoringParamView{ScoringParam: p, AreaName: areas[i].Name}
	}
	return views, nil
}

func newRulesetView(ctx context.Context, ruleset *models.Ruleset) (*rulesetView, error) {
	params, err := withAreaNames(ctx, ruleset.Params)
	if err != nil {
		return nil, err
	}
	return &rulesetView{Ruleset: ruleset, Params: params}, nil
}

func getRulesetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var status *models.RulesetStatus
		if s := queryString(c, "status"); s != nil {
			st := models.RulesetStatus(*s)
			status = &st
		}
		rulesets, err := models.GetRulesets(ctx, queryString(c, "name"), status)
		if err != nil {
			respondError(c, "GetRulesets", err)
			return
		}
		if c.Query("include") != "params" {
			respondData(c, http.StatusOK, rulesets)
			return
		}

		// queue every load before waiting so the loader batches them
		thunks := make([]func() ([]*models.ScoringParam, error), len(rulesets))
		for i, r := range rulesets {
			thunks[i] = middlewares.LoadScoringParams(ctx, r.ID)
		}
		views := make([]*rulesetView, len(rulesets))
		for i, r := range rulesets {
			params, err := thunks[i]()
			if err != nil {
				respondError(c, "GetRulesets", err)
				return
			}
			copied := *r
			copied.Params = params
			if views[i], err = newRulesetView(ctx, &copied); err != nil {
				respondError(c, "GetRulesets", err)
				return
			}
		}
		respondData(c, http.StatusOK, views)
	}
}

func getRulesetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ruleset, err := models.GetRuleset(c.Request.Context(), id)
		if err != nil {
			respondError(c, "GetRuleset", err)
			return
		}
		view, err := newRulesetView(c.Request.Context(), ruleset)
		if err != nil {
			respondError(c, "GetRuleset", err)
			return
		}
		respondData(c, http.StatusOK, view)
	}
}

func createRulesetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRuleset
		if !bindJSON(c, &input) {
			return
		}
		ruleset, err := models.CreateRuleset(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "CreateRuleset", err)
			return
		}
		respondData(c, http.StatusCreated, ruleset)
	}
}

func updateRulesetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewRuleset
		if !bindJSON(c, &input) {
			return
		}
		ruleset, err := models.UpdateRuleset(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "UpdateRuleset", err)
			return
		}
		respondData(c, http.StatusOK, ruleset)
	}
}

func deleteRulesetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ruleset, err := models.DeleteRuleset(c.Request.Context(), id)
		if err != nil {
			respondError(c, "DeleteRuleset", err)
			return
		}
		respondData(c, http.StatusOK, ruleset)
	}
}

var rulesetActions = map[string]func(context.Context, int) (*models.Ruleset, error){
	"SubmitRuleset":      models.SubmitRuleset,
	"ApproveRuleset":     models.ApproveRuleset,
	"RejectRuleset":      models.RejectRuleset,
	"CloneRuleset":       models.CloneRuleset,
	"RecalculateRuleset": models.RecalculateRuleset,
}

func rulesetActionHandler(action string) gin.HandlerFunc {
	fn := rulesetActions[action]
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ruleset, err := fn(c.Request.Context(), id)
		if err != nil {
			respondError(c, action, err)
			return
		}
		status := http.StatusOK
		if action == "CloneRuleset" {
			status = http.StatusCreated
		}
		respondData(c, status, ruleset)
	}
}

func getRulesetHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := models.GetRuleset(ctx, id); err != nil {
			respondError(c, "GetRulesetHistory", err)
			return
		}
		histories, err := models.GetHistories(ctx, "rulesets", id)
		if err != nil {
			respondError(c, "GetRulesetHistory", err)
			return
		}
		events, err := models.GetTariffEvents(ctx, models.TariffReferenceTypeRuleset, id)
		if err != nil {
			respondError(c, "GetRulesetHistory", err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"histories": histories, "events": events})
	}
}
