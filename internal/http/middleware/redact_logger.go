// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the structured access logger. Webhook
// traffic is saturated with personal data (phone numbers doubling as chat
// JIDs, display names, message previews), so the logger scrubs the obvious
// identifiers from request metadata before anything is emitted:
//
//   - Never logs request or response bodies
//   - Redacts phone-number JIDs, bare phone numbers, emails and UUIDs from
//     query strings and header values
//   - Fully masks credential headers (Authorization, Cookie, apikey, plus any
//     custom names) and the webhook token query parameter
//
// It also attaches a request-scoped zerolog.Logger under the "logger" context
// key for LoggerFrom.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra HTTP header names whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in set
// (Authorization, Cookie, Set-Cookie, apikey). MaskQueryParams does the same
// for query string parameters (merged with the built-in "token").
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
}

var (
	// jidRE matches WhatsApp-style JIDs like 5491155551234@s.whatsapp.net or
	// 123456789-987654@g.us. Checked before the generic phone pattern so the
	// whole identifier is replaced in one piece.
	jidRE   = regexp.MustCompile(`\b\d{5,20}(?:-\d+)?@(?:s\.whatsapp\.net|g\.us|c\.us|broadcast)\b`)
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactText scrubs identifiers from free-form text. Order matters: JIDs and
// UUIDs first, then emails, then the loose phone pattern.
func redactText(s string) string {
	if s == "" {
		return s
	}
	out := jidRE.ReplaceAllString(s, "[REDACTED:jid]")
	out = uuidRE.ReplaceAllString(out, "[REDACTED:id]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	out = phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
	return out
}

// RedactingLogger returns a Gin middleware that logs HTTP requests with
// sensitive values scrubbed, choosing level by status (info/warn/error).
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"apikey":        {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	maskParams := map[string]struct{}{"token": {}}
	for _, p := range opts.MaskQueryParams {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			maskParams[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := redactQuery(c.Request.URL.Query(), maskParams)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redactText(strings.Join(vv, ", "))
		}

		rid, _ := c.Get(requestIDKey)
		l := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
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
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}

// redactQuery rebuilds a query string with masked parameters replaced and the
// remaining values scrubbed of identifiers.
func redactQuery(q url.Values, masked map[string]struct{}) string {
	if len(q) == 0 {
		return ""
	}
	out := url.Values{}
	for k, vv := range q {
		if _, ok := masked[strings.ToLower(k)]; ok {
			out[k] = []string{"[REDACTED]"}
			continue
		}
		clean := make([]string, len(vv))
		for i, v := range vv {
			clean[i] = redactText(v)
		}
		out[k] = clean
	}
	return out.Encode()
}
