package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// RedactOptions adds header names whose values are replaced wholesale.
// Authorization, Cookie and Set-Cookie are always masked.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	// UUIDs go first: the phone pattern would otherwise eat their digit runs.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redactor scrubs identifiers from strings and masks sensitive headers.
type Redactor struct {
	masked map[string]struct{}
}

// NewRedactor builds a Redactor from opts.
func NewRedactor(opts RedactOptions) *Redactor {
	r := &Redactor{masked: map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.masked[h] = struct{}{}
		}
	}
	return r
}

// Scrub replaces UUIDs, e-mail addresses and phone numbers in s.
func (r *Redactor) Scrub(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// Headers returns a flattened, scrubbed copy of h.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.Scrub(strings.Join(vv, ", "))
	}
	return out
}
