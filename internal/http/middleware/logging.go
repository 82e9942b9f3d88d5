// Package middleware contains the Gin middleware shared by the planner API.
//
// This file provides correlation IDs, the access log and panic recovery:
//
//   - RequestID() reuses or mints an X-Request-ID and stores it in the context.
//   - AccessLog() emits one structured line per request with sensitive
//     headers masked and identifiers scrubbed from query strings, and attaches
//     a request-scoped zerolog.Logger for handlers (see LoggerFrom).
//   - Recovery() turns panics into the standard JSON error envelope.
//
// Install them in that order so panics and errors carry the request ID.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// maxQueryLogLength caps the logged query string, in bytes.
	maxQueryLogLength = 2048
)

// RequestID propagates the caller's X-Request-ID or generates a UUIDv4.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the request ID stored by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// AccessLog logs every request with redacted query and headers. Bodies are
// never logged: concept texts and feedback can be long and user-authored.
//
// Level follows the outcome: error for 5xx or recorded gin errors, warn for
// 4xx, info otherwise. Replayed idempotent requests are flagged.
func AccessLog(opts RedactOptions) gin.HandlerFunc {
	red := NewRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()
		path := routeOf(c)

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("user_id", userIDFromCtx(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		query := truncate(red.Scrub(c.Request.URL.RawQuery), maxQueryLogLength)
		headers := red.Headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		ev.
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Bool("replay", IsReplay(c)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// Recovery converts a panic into a 500 with the standard error envelope and
// logs the stack with the request ID.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// AccessLog is not installed.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// routeOf returns the matched route template, or the raw path on 404.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate operates on bytes, which is fine for log fields.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
