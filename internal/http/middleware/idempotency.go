// Package middleware contains the Gin middleware shared by the planner API.
//
// This file implements Idempotency-Key support for POST endpoints. Every
// generation or simulation call is slow and produces a new entity version, so
// a client retry must not create a second version. The first successful
// response for (user, route, key) is stored; later requests with the same key
// receive the stored status and body without reaching the handler.
package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderReplayed marks a response served from the idempotency store.
const HeaderReplayed = "Idempotent-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// StoredResponse is a previously completed response.
type StoredResponse struct {
	Status int
	Body   []byte
}

// IdempotencyStore persists completed responses. Lookup returns nil, nil
// when nothing usable is stored; expiry is the store's concern.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, route, key string, now time.Time) (*StoredResponse, error)
	Save(ctx context.Context, userID, route, key string, status int, body []byte) error
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length (default 200).
	MaxLen int
	// Pattern restricts key characters (default ^[A-Za-z0-9._~\-:]+$).
	Pattern *regexp.Regexp
}

// GetIdempotencyKey returns the validated key of the current request.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the response was served from the store.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Idempotency validates the Idempotency-Key header on POST requests, replays
// stored responses and records new 2xx responses. Requests without the
// header, and non-POST requests, pass through untouched. Store errors are
// logged and never fail the request.
func Idempotency(opts IdempotencyOptions, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)
		if store == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		uid, route := userIDFromCtx(c), routeOf(c)
		prev, err := store.Lookup(ctx, uid, route, key, time.Now().UTC())
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("route", route).Msg("idempotency lookup failed")
		}
		if prev != nil {
			c.Set(ctxKeyIdemReplay, true)
			replays.WithLabelValues(route).Inc()
			c.Header(HeaderReplayed, "true")
			c.Data(prev.Status, "application/json; charset=utf-8", prev.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := store.Save(ctx, uid, route, key, status, rec.buf.Bytes()); err != nil {
			LoggerFrom(c).Warn().Err(err).Str("route", route).Msg("idempotency save failed")
		}
	}
}

// bodyRecorder tees the response body into a buffer.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// userIDFromCtx returns the caller identity set by upstream auth, the
// X-User-ID header, or "demo-user".
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := c.GetHeader("X-User-ID"); h != "" {
			return h
		}
	}
	return "demo-user"
}
