package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/insurx/insurx-web/internal/backend"
	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/session"
)

// Backend is the subset of the REST API client the handlers use.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResult, error)
	Signup(ctx context.Context, fullName, email, password string, plan domain.Plan) (*backend.AuthResult, error)
	Dashboard(ctx context.Context, token string) (*domain.Dashboard, error)
	GetMonitoringConfig(ctx context.Context, token string) (*domain.MonitoringArea, error)
	SetMonitoringConfig(ctx context.Context, token, startArea, endArea string) (*domain.MonitoringArea, error)
	CreateAssessment(ctx context.Context, token, location string, propertyValue float64) (*domain.Assessment, error)
	InitiatePayment(ctx context.Context, token, email string, amount int64, currency string) (string, error)
	VerifyPayment(ctx context.Context, token, reference string) (string, error)
}

const msgBackendUnreachable = "Network error. Please ensure backend is running."

// AuthHandler signs users in and out against the backend.
type AuthHandler struct {
	*Handler
	backend Backend
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(base *Handler, b Backend) *AuthHandler {
	return &AuthHandler{Handler: base, backend: b}
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/signup", h.Signup)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)
	})
}

// Login authenticates with the backend and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body fields
	if !decodeBody(w, r, &body) {
		return
	}
	email, password := body.str("email"), body.str("password")
	if email == "" || password == "" {
		Error(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	res, err := h.backend.Login(r.Context(), email, password)
	if err != nil {
		h.backendError(w, "login", err, "Login failed")
		return
	}
	h.startSession(w, r, res)
}

// Signup creates a backend account and starts a session.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var body fields
	if !decodeBody(w, r, &body) {
		return
	}
	fullName, email, password := body.str("fullName"), body.str("email"), body.str("password")
	if fullName == "" || email == "" || password == "" {
		Error(w, http.StatusBadRequest, "Full name, email and password are required.")
		return
	}

	res, err := h.backend.Signup(r.Context(), fullName, email, password, domain.ParsePlan(body.str("plan")))
	if err != nil {
		h.backendError(w, "signup", err, "Signup failed")
		return
	}
	h.startSession(w, r, res)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, res *backend.AuthResult) {
	_, err := h.sessions.Start(w, r, res.Profile, res.Token)
	if errors.Is(err, session.ErrTokenExpired) {
		h.logger.Warn("Backend issued an expired token", "user_id", res.Profile.ID)
		Error(w, http.StatusUnauthorized, "Authentication token has expired. Please log in again.")
		return
	}
	if err != nil {
		h.logger.Error("Failed to start session", "error", err)
		Error(w, http.StatusInternalServerError, "Could not start session.")
		return
	}
	h.logger.Info("Session started", "user_id", res.Profile.ID, "plan", res.Profile.Plan)
	JSON(w, http.StatusOK, map[string]any{"ok": true, "user": res.Profile})
}

// Logout clears the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Warn("Failed to delete session", "error", err)
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Session returns the signed-in profile.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		Error(w, http.StatusUnauthorized, "Not signed in.")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"user": sess.Profile})
}

// backendError maps a backend client error to a response. Backend status
// errors keep their status and message; everything else is a 502.
func (h *Handler) backendError(w http.ResponseWriter, op string, err error, fallback string) {
	var se *backend.StatusError
	if errors.As(err, &se) {
		msg := se.Message
		if msg == "" {
			msg = fallback
		}
		Error(w, se.Status, msg)
		return
	}

	var ipe *backend.InvalidProfileError
	if errors.As(err, &ipe) {
		h.logger.Error("Backend returned invalid profile", "op", op, "error", err)
		Error(w, http.StatusBadGateway, "Unexpected response from backend.")
		return
	}

	h.logger.Error("Backend request failed", "op", op, "error", err)
	Error(w, http.StatusBadGateway, msgBackendUnreachable)
}
