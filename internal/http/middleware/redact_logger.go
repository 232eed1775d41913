// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger used by the lookup
// router. It never logs bodies, masks credential headers outright (the
// backend anon key travels as "apikey" and as a bearer token, so both are
// masked by default) and scrubs emails, phone numbers and UUIDs from query
// strings and other header values.
//
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders:     []string{"X-Api-Key"},
//	    KeepQueryParams: []string{"barcode"},
//	}))
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
//
// MaskHeaders lists extra header names (case-insensitive) whose values are
// replaced with "[REDACTED]", on top of Authorization, Apikey, Cookie and
// Set-Cookie.
//
// KeepQueryParams lists query parameter names logged verbatim. Barcodes are
// long digit runs that the phone pattern would otherwise swallow.
type RedactOptions struct {
	MaskHeaders     []string
	KeepQueryParams []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so UUID hex segments never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs identifiers from s. UUIDs go first because the phone pattern
// is the loosest.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// redactQuery scrubs each key=value pair of a raw query unless its key is in
// keep.
func redactQuery(raw string, keep map[string]struct{}) string {
	if raw == "" || len(keep) == 0 {
		return redact(raw)
	}
	pairs := strings.Split(raw, "&")
	for i, p := range pairs {
		k, _, _ := strings.Cut(p, "=")
		if _, ok := keep[k]; ok {
			continue
		}
		pairs[i] = redact(p)
	}
	return strings.Join(pairs, "&")
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, group := range [][]string{base, extra} {
		for _, h := range group {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				set[h] = struct{}{}
			}
		}
	}
	return set
}

// RedactingLogger returns a Gin middleware that logs one scrubbed line per
// request (INFO, WARN for 4xx, ERROR for 5xx) and stores a request-scoped
// logger carrying request_id, method and route so LoggerFrom picks it up.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet([]string{"authorization", "apikey", "cookie", "set-cookie"}, opts.MaskHeaders)
	keep := make(map[string]struct{}, len(opts.KeepQueryParams))
	for _, k := range opts.KeepQueryParams {
		if k = strings.TrimSpace(k); k != "" {
			keep[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := truncate(redactQuery(c.Request.URL.RawQuery, keep), maxQueryLogLength)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}

		l := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("remote_ip", c.ClientIP()).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
