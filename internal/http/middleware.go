package httpx

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"blog/internal/auth"
)

const CookieName = "session_id"

// withSession resolves the session cookie to a user id and injects it into
// the request context. Anonymous and expired sessions pass through untouched.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
			if uid, exp, err2 := auth.UserFromSession(r.Context(), s.DB, c.Value); err2 == nil && exp.After(time.Now()) {
				r = r.WithContext(auth.WithUserID(r.Context(), uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireLogin bounces anonymous requests to the login page, carrying the
// original path so login can return the user where they were headed.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserIDFrom(r.Context()); !ok {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ——— access log ———

type statusRW struct {
	http.ResponseWriter
	status int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// WithAccessLog logs METHOD PATH -> STATUS (duration) for every request.
func WithAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRW{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, sw.status, time.Since(start).Truncate(time.Millisecond))
	})
}

// WithTimeout bounds the whole request at 5s.
func WithTimeout(next http.Handler) http.Handler {
	return http.TimeoutHandler(next, 5*time.Second, "request timeout")
}
