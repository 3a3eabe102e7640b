package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/middlewares"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/scoring"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
)

type envelope struct {
	Data   json.RawMessage     `json:"data"`
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

// setupTestRouter serves the API on a fresh sqlite database with a fixed caller.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "tariff.db") + "?_busy_timeout=5000&_foreign_keys=off"
	conn, err := config.OpenDialector(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	config.SetDB(conn)
	config.SetRedisDB(nil)
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		config.SetDB(nil)
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := utils.SetUtilityIdInContext(c.Request.Context(), "utility-test")
		ctx = utils.SetAdminIdInContext(ctx, 7)
		ctx = utils.SetAdminNameInContext(ctx, "tester")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(middlewares.LoaderMiddleware())
	registerRoutes(r)
	r.POST("/internal/ops/outbox/replay", outboxReplayHandler())
	return r
}

func doJSON(t *testing.T, r http.Handler, method string, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(env.Data))
	}
	return v
}

func upload(t *testing.T, r http.Handler, path string, filename string, content string) (int, envelope) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode upload: %v (%s)", err, w.Body.String())
	}
	return w.Code, env
}

func TestAreaEndpoints(t *testing.T) {
	r := setupTestRouter(t)

	code, env := doJSON(t, r, http.MethodPost, "/api/areas", gin.H{"name": "Gulshan", "zone": "North"})
	if code != http.StatusCreated {
		t.Fatalf("create area: %d %s", code, env.Error)
	}
	area := decodeData[models.Area](t, env)

	code, env = doJSON(t, r, http.MethodPost, "/api/areas", gin.H{"zone": "North"})
	if code != http.StatusUnprocessableEntity || len(env.Fields["name"]) == 0 {
		t.Fatalf("expected 422 on name, got %d %+v", code, env)
	}

	code, env = doJSON(t, r, http.MethodPost, "/api/areas/"+itoa(area.ID)+"/toggle-active", gin.H{"is_active": false})
	if code != http.StatusOK || *decodeData[models.Area](t, env).IsActive {
		t.Fatalf("toggle area: %d %+v", code, env)
	}

	code, _ = doJSON(t, r, http.MethodGet, "/api/areas/999", nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing area, got %d", code)
	}
	code, _ = doJSON(t, r, http.MethodGet, "/api/areas/abc", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad id, got %d", code)
	}
}

func TestSlabEndpointsReturnFieldErrors(t *testing.T) {
	r := setupTestRouter(t)

	code, env := doJSON(t, r, http.MethodPost, "/api/tariff-configs", gin.H{"name": "Residential", "billing_mode": "Tiered", "unit": "m3"})
	if code != http.StatusCreated {
		t.Fatalf("create config: %d %s", code, env.Error)
	}
	tc := decodeData[models.TariffConfig](t, env)
	base := "/api/tariff-configs/" + itoa(tc.ID)

	if code, env = doJSON(t, r, http.MethodPost, base+"/slabs", gin.H{"lower_limit": "0", "upper_limit": "10", "rate": "2"}); code != http.StatusCreated {
		t.Fatalf("create slab: %d %+v", code, env)
	}
	if code, env = doJSON(t, r, http.MethodPost, base+"/slabs", gin.H{"lower_limit": "10", "rate": "5"}); code != http.StatusCreated {
		t.Fatalf("create open slab: %d %+v", code, env)
	}

	code, env = doJSON(t, r, http.MethodPost, base+"/slabs", gin.H{"lower_limit": "5", "upper_limit": "8", "rate": "1"})
	if code != http.StatusUnprocessableEntity || env.Error != "validation failed" || len(env.Fields["lowerLimit"]) == 0 {
		t.Fatalf("expected overlap field error, got %d %+v", code, env)
	}

	code, env = doJSON(t, r, http.MethodPost, base+"/slabs/validate", gin.H{"lower_limit": "5", "upper_limit": "8", "rate": "1"})
	if code != http.StatusOK || decodeData[models.SlabValidation](t, env).Valid {
		t.Fatalf("dry run should answer 200 with valid=false, got %d %+v", code, env)
	}

	code, env = doJSON(t, r, http.MethodPost, base+"/calculate", gin.H{"consumption": "15"})
	if code != http.StatusOK {
		t.Fatalf("calculate: %d %+v", code, env)
	}
	charge := decodeData[struct {
		Total string `json:"total"`
	}](t, env)
	if charge.Total != "45" {
		t.Fatalf("expected total 45, got %s", charge.Total)
	}

	code, env = doJSON(t, r, http.MethodPost, base+"/calculate", gin.H{"consumption": "-1"})
	if code != http.StatusUnprocessableEntity || len(env.Fields["consumption"]) == 0 {
		t.Fatalf("expected 422 for negative consumption, got %d %+v", code, env)
	}

	code, env = doJSON(t, r, http.MethodGet, "/api/tariff-configs?include=slabs", nil)
	if code != http.StatusOK {
		t.Fatalf("list configs: %d %+v", code, env)
	}
	configs := decodeData[[]models.TariffConfig](t, env)
	if len(configs) != 1 || len(configs[0].Slabs) != 2 {
		t.Fatalf("expected one config with two slabs, got %+v", configs)
	}
}

func TestImportEndpointReturnsRowErrorsAsData(t *testing.T) {
	r := setupTestRouter(t)

	if code, env := doJSON(t, r, http.MethodPost, "/api/areas", gin.H{"name": scoring.ExampleAreaName}); code != http.StatusCreated {
		t.Fatalf("create area: %d %s", code, env.Error)
	}
	code, env := doJSON(t, r, http.MethodPost, "/api/rulesets", gin.H{"name": "FY25"})
	if code != http.StatusCreated {
		t.Fatalf("create ruleset: %d %s", code, env.Error)
	}
	ruleset := decodeData[models.Ruleset](t, env)
	base := "/api/rulesets/" + itoa(ruleset.ID)

	bad := strings.Join(scoring.TemplateHeaders(), ",") + "\nNowhere,1,1,1,1,1,1,1,1,1\n"
	code, env = upload(t, r, base+"/import", "params.csv", bad)
	if code != http.StatusOK {
		t.Fatalf("row errors must not fail the request, got %d %s", code, env.Error)
	}
	failed := decodeData[models.ImportResult](t, env)
	if failed.Parse.Success || len(failed.Parse.Errors) == 0 {
		t.Fatalf("expected parse errors, got %+v", failed.Parse)
	}

	code, env = upload(t, r, base+"/import", "params.csv", scoring.GenerateCSVTemplate())
	if code != http.StatusOK {
		t.Fatalf("import template: %d %s", code, env.Error)
	}
	if imported := decodeData[models.ImportResult](t, env); !imported.Parse.Success || imported.Created != 1 {
		t.Fatalf("unexpected import result %+v", imported)
	}

	code, env = doJSON(t, r, http.MethodGet, base, nil)
	if code != http.StatusOK {
		t.Fatalf("get ruleset: %d %s", code, env.Error)
	}
	view := decodeData[struct {
		Params []struct {
			AreaName string `json:"area_name"`
		} `json:"params"`
	}](t, env)
	if len(view.Params) != 1 || view.Params[0].AreaName != scoring.ExampleAreaName {
		t.Fatalf("expected the param with its area name, got %+v", view)
	}

	code, env = upload(t, r, base+"/import", "params.pdf", "x")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unsupported file, got %d", code)
	}

	if code, env = doJSON(t, r, http.MethodPost, base+"/submit", nil); code != http.StatusOK {
		t.Fatalf("submit: %d %s", code, env.Error)
	}
	code, env = upload(t, r, base+"/import", "params.csv", scoring.GenerateCSVTemplate())
	if code != http.StatusConflict {
		t.Fatalf("expected 409 importing into a pending ruleset, got %d %s", code, env.Error)
	}
}

func TestTemplateAndExportDownloads(t *testing.T) {
	r := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scoring/template", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("template: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), scoring.ExampleAreaName) {
		t.Fatalf("template should carry the example row")
	}

	_, env := doJSON(t, r, http.MethodPost, "/api/rulesets", gin.H{"name": "FY25"})
	ruleset := decodeData[models.Ruleset](t, env)
	req = httptest.NewRequest(http.MethodGet, "/api/rulesets/"+itoa(ruleset.ID)+"/export", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("export: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestOutboxReplayRequeuesDeadEvents(t *testing.T) {
	r := setupTestRouter(t)

	_, env := doJSON(t, r, http.MethodPost, "/api/rulesets", gin.H{"name": "FY25"})
	ruleset := decodeData[models.Ruleset](t, env)

	ctx := utils.SetUtilityIdInContext(context.Background(), "utility-test")
	events, err := models.GetTariffEvents(ctx, models.TariffReferenceTypeRuleset, ruleset.ID)
	if err != nil || len(events) != 1 {
		t.Fatalf("GetTariffEvents: %v %d", err, len(events))
	}
	if err := config.GetDB().Model(&models.TariffEventRecord{}).Where("id = ?", events[0].ID).
		Updates(map[string]interface{}{"publish_status": models.OutboxPublishStatusDead, "publish_attempts": 20}).Error; err != nil {
		t.Fatalf("mark dead: %v", err)
	}

	code, env := doJSON(t, r, http.MethodPost, "/internal/ops/outbox/replay", nil)
	if code != http.StatusOK {
		t.Fatalf("replay: %d %s", code, env.Error)
	}
	if got := decodeData[map[string]any](t, env)["requeued"]; got != float64(1) {
		t.Fatalf("expected 1 requeued, got %v", got)
	}

	code, _ = doJSON(t, r, http.MethodPost, "/internal/ops/outbox/replay", gin.H{"record_id": 999})
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown record, got %d", code)
	}
}

func TestRouterGatesAnonymousCallers(t *testing.T) {
	setupTestRouter(t)
	r := newRouter(config.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("healthz: %d", w.Code)
	}

	code, env := doJSON(t, r, http.MethodGet, "/api/areas", nil)
	if code != http.StatusUnauthorized || env.Error != utils.ErrorUtilityRequired.Error() {
		t.Fatalf("expected 401 without a utility, got %d %+v", code, env)
	}

	code, _ = doJSON(t, r, http.MethodGet, "/api/nothing", nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown route, got %d", code)
	}
}
