package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// memStore is an in-memory IdempotencyStore.
type memStore struct {
	mu      sync.Mutex
	items   map[string]StoredResponse
	lookups int
	failGet bool
}

func newMemStore() *memStore { return &memStore{items: map[string]StoredResponse{}} }

func (s *memStore) Lookup(_ context.Context, uid, route, key string, _ time.Time) (*StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.failGet {
		return nil, errors.New("db down")
	}
	if r, ok := s.items[uid+"|"+route+"|"+key]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *memStore) Save(_ context.Context, uid, route, key string, status int, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[uid+"|"+route+"|"+key] = StoredResponse{Status: status, Body: append([]byte(nil), body...)}
	return nil
}

func idemRouter(store IdempotencyStore, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Idempotency(IdempotencyOptions{}, store))
	r.POST("/api/plans/regenerate-rule", func(c *gin.Context) {
		*calls++
		if c.Query("fail") != "" {
			c.JSON(http.StatusBadGateway, gin.H{"code": "generation_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ruleId": 100 + *calls})
	})
	r.GET("/api/rules/:id/lineage", func(c *gin.Context) {
		*calls++
		c.Status(http.StatusOK)
	})
	return r
}

func post(r http.Handler, path, key, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	store, calls := newMemStore(), 0
	r := idemRouter(store, &calls)

	first := post(r, "/api/plans/regenerate-rule", "retry-1", "")
	second := post(r, "/api/plans/regenerate-rule", "retry-1", "")

	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
	if second.Code != first.Code || second.Body.String() != first.Body.String() {
		t.Fatalf("replay mismatch: %d %q vs %d %q", first.Code, first.Body, second.Code, second.Body)
	}
	if second.Header().Get(HeaderReplayed) != "true" || first.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("replay header misplaced")
	}
}

func TestIdempotency_ScopedByUserAndKey(t *testing.T) {
	store, calls := newMemStore(), 0
	r := idemRouter(store, &calls)

	post(r, "/api/plans/regenerate-rule", "k", "alice")
	post(r, "/api/plans/regenerate-rule", "k", "bob")
	post(r, "/api/plans/regenerate-rule", "other", "alice")
	if calls != 3 {
		t.Fatalf("distinct users/keys must not share responses, calls=%d", calls)
	}
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	store, calls := newMemStore(), 0
	r := idemRouter(store, &calls)

	if w := post(r, "/api/plans/regenerate-rule?fail=1", "k", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	post(r, "/api/plans/regenerate-rule?fail=1", "k", "")
	if calls != 2 || len(store.items) != 0 {
		t.Fatalf("error responses must not be stored: calls=%d items=%d", calls, len(store.items))
	}
}

func TestIdempotency_PassThrough(t *testing.T) {
	store, calls := newMemStore(), 0
	r := idemRouter(store, &calls)

	post(r, "/api/plans/regenerate-rule", "", "")
	post(r, "/api/plans/regenerate-rule", "", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rules/1/lineage", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	r.ServeHTTP(w, req)

	if calls != 3 || store.lookups != 0 {
		t.Fatalf("requests without key or non-POST must bypass the store: calls=%d lookups=%d", calls, store.lookups)
	}
}

func TestIdempotency_InvalidKey(t *testing.T) {
	store, calls := newMemStore(), 0
	r := idemRouter(store, &calls)

	for _, key := range []string{"has space", strings.Repeat("a", 201)} {
		w := post(r, "/api/plans/regenerate-rule", key, "")
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: expected 400 bad_idempotency_key, got %d %s", key, w.Code, w.Body)
		}
	}
	if calls != 0 {
		t.Fatalf("handler must not run for invalid keys")
	}
}

func TestIdempotency_LookupErrorFallsThrough(t *testing.T) {
	store, calls := newMemStore(), 0
	store.failGet = true
	r := idemRouter(store, &calls)

	if w := post(r, "/api/plans/regenerate-rule", "k", ""); w.Code != http.StatusOK || calls != 1 {
		t.Fatalf("lookup errors must not fail the request: %d calls=%d", w.Code, calls)
	}
}

func TestHelpers_KeyReplayAndUser(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := GetIdempotencyKey(c); ok || IsReplay(c) {
		t.Fatalf("expected empty state")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must be ignored")
	}
	if userIDFromCtx(c) != "demo-user" {
		t.Fatalf("expected demo-user fallback")
	}
	c.Request.Header.Set("X-User-ID", "designer")
	if userIDFromCtx(c) != "designer" {
		t.Fatalf("expected header identity")
	}
	c.Set("userID", "u1")
	if userIDFromCtx(c) != "u1" {
		t.Fatalf("context identity should win")
	}
}
