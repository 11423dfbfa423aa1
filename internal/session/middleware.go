package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/observability"
)

type contextKey int

const sessionKey contextKey = iota

// FromContext returns the session loaded by Middleware, or nil.
func FromContext(ctx context.Context) *domain.Session {
	if s, ok := ctx.Value(sessionKey).(*domain.Session); ok {
		return s
	}
	return nil
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// Middleware loads the request's session into the context. Store failures
// are logged and the request continues without a session.
func Middleware(m *Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.Current(r)
			if err != nil {
				logger.Error("Failed to load session", "error", err, "path", r.URL.Path)
			}
			if sess != nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard decisions, also used as metric labels.
const (
	DecisionAllow    = "allow"
	DecisionLogin    = "login"
	DecisionInactive = "inactive"
)

// Decide evaluates the guard rule for sess.
func Decide(sess *domain.Session) string {
	switch {
	case sess == nil:
		return DecisionLogin
	case !sess.Profile.IsActive():
		return DecisionInactive
	default:
		return DecisionAllow
	}
}

// RequireActive admits only requests whose session has an active
// subscription. Page requests are redirected to loginPath or inactivePath;
// API requests get 401 or 402. metrics may be nil.
func RequireActive(loginPath, inactivePath string, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := Decide(FromContext(r.Context()))
			if metrics != nil {
				metrics.GuardDecisions.WithLabelValues(decision).Inc()
			}

			switch decision {
			case DecisionLogin:
				if isAPI(r) {
					writeError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				http.Redirect(w, r, loginRedirect(loginPath, r), http.StatusFound)
			case DecisionInactive:
				if isAPI(r) {
					writeError(w, http.StatusPaymentRequired, "subscription inactive")
					return
				}
				http.Redirect(w, r, inactivePath, http.StatusFound)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireSession admits any request that carries a session, active or not.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// loginRedirect appends the original path so the login page can return there.
func loginRedirect(loginPath string, r *http.Request) string {
	if r.Method != http.MethodGet || r.URL.Path == "" || r.URL.Path == "/" {
		return loginPath
	}
	return loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
