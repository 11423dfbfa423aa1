package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/insurx/insurx-web/internal/domain"
)

// CookieName is the session cookie.
const CookieName = "insurx_session"

var (
	// ErrTokenExpired is returned by Start when the backend token's exp
	// claim is not in the future.
	ErrTokenExpired = errors.New("backend token expired")
	// ErrProfileMismatch is returned by Adopt when the profile belongs to a
	// different user than the session.
	ErrProfileMismatch = errors.New("profile does not match session")
)

// Manager binds sessions to requests through the session cookie.
type Manager struct {
	store  Store
	clock  clockwork.Clock
	ttl    time.Duration
	secure bool
	logger *slog.Logger
}

// NewManager creates a Manager. Sessions live for ttl, or until the backend
// token expires when that is sooner. secure marks the cookie Secure.
func NewManager(st Store, ttl time.Duration, secure bool, clock clockwork.Clock, logger *slog.Logger) *Manager {
	return &Manager{store: st, clock: clock, ttl: ttl, secure: secure, logger: logger}
}

// Start creates a session for profile and token and sets the cookie. Any
// session the request already carried is discarded.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, profile domain.Profile, token string) (*domain.Session, error) {
	now := m.clock.Now()
	expires := m.expiry(now, token)
	if !expires.After(now) {
		return nil, ErrTokenExpired
	}

	if old, ok := readCookie(r); ok {
		if err := m.store.Delete(r.Context(), old); err != nil {
			m.logger.Warn("Failed to discard previous session", "error", err)
		}
	}
	sess := &domain.Session{
		ID:        uuid.NewString(),
		Profile:   profile,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := m.store.Set(r.Context(), sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.writeCookie(w, sess.ID, sess.ExpiresAt)
	return sess, nil
}

// Current returns the request's session, or nil when there is none.
func (m *Manager) Current(r *http.Request) (*domain.Session, error) {
	id, ok := readCookie(r)
	if !ok {
		return nil, nil
	}
	return m.store.Get(r.Context(), id)
}

// Token returns the backend bearer token of the request's session.
func (m *Manager) Token(r *http.Request) string {
	if sess := FromContext(r.Context()); sess != nil {
		return sess.Token
	}
	sess, err := m.Current(r)
	if err != nil || sess == nil {
		return ""
	}
	return sess.Token
}

// Clear deletes the request's session and expires the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	m.clearCookie(w)
	id, ok := readCookie(r)
	if !ok {
		return nil
	}
	if err := m.store.Delete(r.Context(), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Adopt replaces the profile of the request's session, keeping its token
// and expiry. It returns nil when the request has no session, and
// ErrProfileMismatch when profile carries another user's email.
func (m *Manager) Adopt(r *http.Request, profile domain.Profile) (*domain.Session, error) {
	sess, err := m.Current(r)
	if err != nil || sess == nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(profile.Email), strings.TrimSpace(sess.Profile.Email)) {
		return nil, ErrProfileMismatch
	}
	if profile.ID == "" {
		profile.ID = sess.Profile.ID
	}
	sess.Profile = profile
	if err := m.store.Set(r.Context(), sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// expiry is now+ttl, shortened to the token's exp claim when present.
func (m *Manager) expiry(now time.Time, token string) time.Time {
	exp := now.Add(m.ttl)
	if token == "" {
		return exp
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return exp
	}
	tokenExp, err := claims.GetExpirationTime()
	if err != nil || tokenExp == nil {
		return exp
	}
	if tokenExp.Before(exp) {
		return tokenExp.Time
	}
	return exp
}

func readCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	return v, v != ""
}

func (m *Manager) writeCookie(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(m.clock.Now()).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
}
