package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-boardgame-planner/internal/config"
	"github.com/tbourn/go-boardgame-planner/internal/generator"
	"github.com/tbourn/go-boardgame-planner/internal/http/middleware"
	"github.com/tbourn/go-boardgame-planner/internal/repo"
	"github.com/tbourn/go-boardgame-planner/internal/services"
	"github.com/tbourn/go-boardgame-planner/internal/simulation"
)

// newTestDB opens an isolated in-memory database with the demo designs.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := repo.SeedDemo(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api",
		MaxBodyBytes:   1 << 20,
		RateRPS:        100,
		RateBurst:      100,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "planner-test"},
	}
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	planner := services.NewOrchestrator(db, generator.Stub{}, nil, simulation.NewRunner(nil), nil)
	r := gin.New()
	RegisterRoutes(r, Deps{DB: db, Planner: planner}, cfg)
	return r, db
}

func call(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_HealthMetricsFallbacks(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := call(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all CORS expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("request id / security headers missing: %v", w.Header())
	}

	w = call(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = call(r, http.MethodGet, "/api/nope", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("NoRoute: %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodPut, "/api/simulate/rule-test", "", nil)
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), "method_not_allowed") {
		t.Fatalf("NoMethod: %d %s", w.Code, w.Body.String())
	}

	if w := call(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r, _ := newTestRouter(t, cfg)

	w := call(r, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/simulate/rule-test") {
		t.Fatalf("doc.json: %d", w.Code)
	}
}

func TestRegisterRoutes_HealthDegraded(t *testing.T) {
	r, db := newTestRouter(t, testConfig())
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	if w := call(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed db should degrade health, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://designer.example"}
	r, _ := newTestRouter(t, cfg)

	w := call(r, http.MethodGet, "/health", "", map[string]string{"Origin": "https://designer.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://designer.example" {
		t.Fatalf("allowed origin not echoed: %q", got)
	}
	w = call(r, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin must not be echoed: %q", got)
	}
}

func TestAPI_RegenerateConceptScenarios(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := call(r, http.MethodPost, "/api/plans/regenerate-concept", `{"conceptId":12,"planId":13,"feedback":"좀 더 캐주얼하게"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("regenerate 12/13: %d %s", w.Code, w.Body.String())
	}
	var c struct {
		ConceptID int64 `json:"conceptId"`
		PlanID    int64 `json:"planId"`
		Parent    int64 `json:"parentConceptId"`
		Version   int   `json:"version"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if c.PlanID != 13 || c.Parent != 12 || c.ConceptID == 12 || c.Version != 2 {
		t.Fatalf("unexpected concept %+v", c)
	}

	w = call(r, http.MethodPost, "/api/plans/regenerate-concept", `{"conceptId":12,"planId":999,"feedback":"x"}`, nil)
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), "integrity_violation") {
		t.Fatalf("regenerate 12/999: %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodGet, "/api/plans/13/concepts", "", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == "" {
		t.Fatalf("history: %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
	etag := w.Header().Get("ETag")
	if w := call(r, http.MethodGet, "/api/plans/13/concepts", "", map[string]string{"If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Fatalf("conditional GET: %d", w.Code)
	}
}

func TestAPI_SimulateAndBalanceFeedback(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := call(r, http.MethodPost, "/api/simulate/rule-test", `{"ruleId":23,"simulationCount":5,"playerCount":3,"maxTurns":10}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("simulate: %d %s", w.Code, w.Body.String())
	}
	var out struct {
		SimulationID int64 `json:"simulationId"`
		History      []struct {
			GameID     int    `json:"gameId"`
			Winner     string `json:"winner"`
			TotalTurns int    `json:"totalTurns"`
		} `json:"simulationHistory"`
		Report struct {
			BalanceScore float64 `json:"balanceScore"`
		} `json:"balanceAnalysis"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.History) != 5 {
		t.Fatalf("want 5 games, got %d", len(out.History))
	}
	for i, g := range out.History {
		if g.GameID != i+1 || g.TotalTurns > 10 {
			t.Fatalf("game %d out of order or too long: %+v", i, g)
		}
	}
	if out.Report.BalanceScore < 0 || out.Report.BalanceScore > 10 {
		t.Fatalf("score out of range: %v", out.Report.BalanceScore)
	}

	w = call(r, http.MethodGet, "/api/feedback/balance?ruleId=23", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), fmt.Sprintf(`"simulationId":%d`, out.SimulationID)) {
		t.Fatalf("balance feedback: %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodPost, "/api/simulate/rule-test", `{"ruleId":23,"simulationCount":11,"playerCount":3,"maxTurns":10}`, nil)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "validation_failed") {
		t.Fatalf("count 11: %d %s", w.Code, w.Body.String())
	}
}

func TestAPI_IdempotentRegenerateRule(t *testing.T) {
	r, db := newTestRouter(t, testConfig())
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "regen-23-a", "X-User-ID": "designer"}
	body := `{"ruleId":23,"feedback":"후반 역전 요소"}`

	first := call(r, http.MethodPost, "/api/plans/regenerate-rule", body, hdr)
	second := call(r, http.MethodPost, "/api/plans/regenerate-rule", body, hdr)

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("codes: %d %d", first.Code, second.Code)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) || second.Header().Get(middleware.HeaderReplayed) != "true" {
		t.Fatalf("second call should replay the first")
	}

	var n int64
	db.Table("rules").Where("concept_id = ?", 12).Count(&n)
	if n != 3 { // seeded 23 and 2222 plus one regeneration
		t.Fatalf("replay must not create another rule, rules=%d", n)
	}

	third := call(r, http.MethodPost, "/api/plans/regenerate-rule", body, map[string]string{middleware.HeaderIdempotencyKey: "regen-23-b"})
	if third.Code != http.StatusCreated || bytes.Equal(third.Body.Bytes(), first.Body.Bytes()) {
		t.Fatalf("a new key must create a new version")
	}
}

func TestAPI_RateLimitAppliesToPOSTOnly(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS, cfg.RateBurst = 0.001, 1
	r, _ := newTestRouter(t, cfg)

	body := `{"ruleId":23,"simulationCount":1,"playerCount":2,"maxTurns":5}`
	if w := call(r, http.MethodPost, "/api/simulate/rule-test", body, nil); w.Code != http.StatusOK {
		t.Fatalf("first POST: %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/api/simulate/rule-test", body, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST should be limited, got %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := call(r, http.MethodGet, "/api/rules/23/lineage", "", nil); w.Code != http.StatusOK {
			t.Fatalf("GET limited: %d", w.Code)
		}
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(8))
	r.POST("/x", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})
	if w := call(r, http.MethodPost, "/x", "1234", nil); w.Code != http.StatusOK {
		t.Fatalf("small body: %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/x", strings.Repeat("x", 64), nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body: %d", w.Code)
	}
}

func TestGroupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for prefix, path := range map[string]string{"": "/ping", "/": "/ping", "/api": "/api/ping"} {
		r := gin.New()
		groupWithPrefix(r, prefix).GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		if w := call(r, http.MethodGet, path, "", nil); w.Code != http.StatusNoContent {
			t.Fatalf("prefix %q: GET %s = %d", prefix, path, w.Code)
		}
	}
}
