package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/handlers"
	"github.com/stagehand/stagehand/internal/server/ipgeo"
	"github.com/stagehand/stagehand/internal/server/reqctx"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// RequestContext assigns a request ID, records the client metadata and the
// session carried by the cookie, and logs the request once served.
func RequestContext(secret []byte, geo *ipgeo.Checker, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := reqctx.NewRequestID()
		ip := reqctx.GetClientIP(r)
		ctx := reqctx.WithRequestID(r.Context(), id)
		ctx = reqctx.WithClientIP(ctx, ip)
		ctx = reqctx.WithUserAgent(ctx, r.Header.Get("User-Agent"))
		ctx = reqctx.WithCountryCode(ctx, geo.CountryCode(ip))
		if s := handlers.SessionFromRequest(r, secret); s != nil {
			ctx = reqctx.WithSession(ctx, s)
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		user := ""
		if s := reqctx.SessionFrom(ctx); s != nil {
			user = s.Username
		}
		slog.InfoContext(ctx, "http",
			"id", id,
			"m", r.Method,
			"p", r.URL.Path,
			"s", rec.status,
			"b", rec.bytes,
			"d", time.Since(start).Round(time.Millisecond),
			"ip", ip,
			"cc", reqctx.CountryCode(ctx),
			"user", user,
		)
	})
}

// RequireSession guards the dashboard. API calls without a valid session get
// a 401, pages are redirected to the login page with the original path.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtected(r.URL.Path) || reqctx.SessionFrom(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, dto.Unauthorized("Authentication required."))
			return
		}
		http.Redirect(w, r, "/login?from="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
	})
}

func isProtected(path string) bool {
	for _, p := range []string{"/dashboard", "/api/dashboard"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
