package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("bad log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	gen := w.Header().Get(requestIDHeader)
	if gen == "" || w.Body.String() != gen {
		t.Fatalf("expected generated id echoed, header=%q body=%q", gen, w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	r.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "fixed-id" {
		t.Fatalf("incoming id not propagated")
	}
}

func TestAccessLog_RedactsAndLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), AccessLog(RedactOptions{MaskHeaders: []string{"X-API-Key"}}))
	r.GET("/api/rules/:id/lineage", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/rules/7/lineage?owner=kim@example.com", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-API-Key", "k")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "kim@example.com") || strings.Contains(out, "Bearer secret") {
		t.Fatalf("sensitive data leaked: %s", out)
	}
	m := lastLine(t, buf)
	if m["level"] != "warn" || m["path"] != "/api/rules/:id/lineage" || m["status"].(float64) != 404 {
		t.Fatalf("unexpected access line: %v", m)
	}
	if !strings.Contains(out, `"message":"inside"`) || !strings.Contains(out, `"request_id"`) {
		t.Fatalf("request-scoped logger missing fields: %s", out)
	}
}

func TestRecovery_WritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("pipeline api: illegal transition") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "internal_error" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("expected a fallback logger")
	}
}

func TestRedactor(t *testing.T) {
	r := NewRedactor(RedactOptions{})
	got := r.Scrub("id=141add05-4415-4938-b5a1-17e0d3171aff&mail=a@b.io&tel=212-555-1212")
	for _, leak := range []string{"141add05", "a@b.io", "555-1212"} {
		if strings.Contains(got, leak) {
			t.Fatalf("%q not scrubbed: %s", leak, got)
		}
	}
	h := r.Headers(http.Header{"Cookie": {"sid=1"}, "Accept": {"application/json"}})
	if h["Cookie"] != "[REDACTED]" || h["Accept"] != "application/json" {
		t.Fatalf("unexpected headers %v", h)
	}
	if truncate("abcdef", 3) != "abc…" || truncate("ab", 3) != "ab" {
		t.Fatalf("truncate mismatch")
	}
}
