// internal/requestinfo/middleware.go
//
// HTTP middleware that attaches *Info to each request.
//
/*
Context
--------
The handler sits in front of the form endpoints.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the left-most client IP from X-Forwarded-For or
     X-Real-IP, falling back to `r.RemoteAddr`.
  3. Performs a GeoLite2 lookup when a database is configured.
  4. Stores the `*Info` in the request context, where the form handler
     picks it up and injects it as the "request" form value.

Instrumentation
---------------
At DEBUG level each invocation logs client IP, country, browser,
device, bot flag, and path.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/formscribe/internal/logger"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Middleware wraps next and attaches *Info.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		info := r.Build(req)

		logger.FromContext(req.Context()).Debugw("request info",
			"ip", info.Geo.IP,
			"country", info.Geo.CountryISO,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
			"bot", info.UA.IsBot,
			"path", info.Path,
		)

		next.ServeHTTP(w, req.WithContext(WithInfo(req.Context(), info)))
	})
}

// Build computes Info for req without touching its context.
func (r *Resolver) Build(req *http.Request) *Info {
	return &Info{
		UA:        parseUA(req.UserAgent(), req.Header.Get("Accept-Language")),
		Geo:       r.lookupGeo(clientIP(req)),
		Path:      req.URL.Path,
		Timestamp: time.Now().UTC(),
	}
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most parseable address from X-Forwarded-For
// or X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
