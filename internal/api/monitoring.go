package api

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/insurx/insurx-web/internal/backend"
	"github.com/insurx/insurx-web/internal/session"
)

// Guard redirect targets.
const (
	LoginPath    = "/login"
	InactivePath = "/signup?reason=inactive"
)

// defaultPaymentCurrency is used for backend card payments when none is given.
const defaultPaymentCurrency = "NGN"

// MonitoringHandler proxies monitoring, assessment and backend payment routes.
type MonitoringHandler struct {
	*Handler
	backend Backend
}

// NewMonitoringHandler creates a MonitoringHandler.
func NewMonitoringHandler(base *Handler, b Backend) *MonitoringHandler {
	return &MonitoringHandler{Handler: base, backend: b}
}

// RegisterRoutes registers monitoring routes. Monitoring and assessments
// need an active subscription; backend payments only need a session.
func (h *MonitoringHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(session.RequireActive(LoginPath, InactivePath, h.metrics))
		r.Get("/api/monitoring/dashboard", h.Dashboard)
		r.Get("/api/monitoring/config", h.GetConfig)
		r.Post("/api/monitoring/config", h.SetConfig)
		r.Post("/api/risk-assessment", h.CreateAssessment)
	})
	r.Group(func(r chi.Router) {
		r.Use(session.RequireSession)
		r.Post("/api/payment/initiate", h.InitiatePayment)
		r.Get("/api/payment/verify/{reference}", h.VerifyPayment)
	})
}

func token(r *http.Request) string {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess.Token
	}
	return ""
}

// Dashboard returns the monitoring dashboard.
func (h *MonitoringHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.backend.Dashboard(r.Context(), token(r))
	if errors.Is(err, backend.ErrNotConfigured) {
		Error(w, http.StatusNotFound, "monitoring not configured")
		return
	}
	if err != nil {
		h.backendError(w, "dashboard", err, "Failed to load dashboard")
		return
	}
	JSON(w, http.StatusOK, d)
}

// GetConfig returns the monitoring area.
func (h *MonitoringHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	area, err := h.backend.GetMonitoringConfig(r.Context(), token(r))
	if err != nil {
		h.backendError(w, "get_monitoring_config", err, "Failed to load settings")
		return
	}
	JSON(w, http.StatusOK, area)
}

// SetConfig stores the monitoring area.
func (h *MonitoringHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var body fields
	if !decodeBody(w, r, &body) {
		return
	}
	start, end := body.str("startArea"), body.str("endArea")
	if start == "" || end == "" {
		Error(w, http.StatusBadRequest, "Start and end areas are required.")
		return
	}

	area, err := h.backend.SetMonitoringConfig(r.Context(), token(r), start, end)
	if err != nil {
		h.backendError(w, "set_monitoring_config", err, "Failed to save settings")
		return
	}
	JSON(w, http.StatusOK, area)
}

// CreateAssessment requests a risk assessment for a property.
func (h *MonitoringHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	var body fields
	if !decodeBody(w, r, &body) {
		return
	}
	location := body.str("location")
	value := number(body["propertyValue"])
	if location == "" || !(value > 0) {
		Error(w, http.StatusBadRequest, "Location and a positive property value are required.")
		return
	}

	a, err := h.backend.CreateAssessment(r.Context(), token(r), location, value)
	if err != nil {
		h.backendError(w, "create_assessment", err, "Assessment failed")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"assessment": a})
}

// InitiatePayment starts a backend card payment and returns its URL.
func (h *MonitoringHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var body fields
	if !decodeBody(w, r, &body) {
		return
	}
	amount := number(body["amount"])
	if !(amount > 0) || amount != math.Trunc(amount) {
		Error(w, http.StatusBadRequest, "A positive whole amount is required.")
		return
	}
	email := body.str("email")
	if email == "" {
		email = session.FromContext(r.Context()).Profile.Email
	}
	currency := strings.ToUpper(body.str("currency"))
	if currency == "" {
		currency = defaultPaymentCurrency
	}

	u, err := h.backend.InitiatePayment(r.Context(), token(r), email, int64(amount), currency)
	if err != nil {
		h.countPayment("initiate", "error")
		h.backendError(w, "initiate_payment", err, "Payment initiation failed")
		return
	}
	h.countPayment("initiate", "success")
	JSON(w, http.StatusOK, map[string]string{"authorization_url": u})
}

// VerifyPayment reports the status of a backend payment reference.
func (h *MonitoringHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(chi.URLParam(r, "reference"))
	if ref == "" {
		Error(w, http.StatusBadRequest, "Payment reference is required.")
		return
	}

	status, err := h.backend.VerifyPayment(r.Context(), token(r), ref)
	if err != nil {
		h.countPayment("verify", "error")
		h.backendError(w, "verify_payment", err, "Payment verification failed")
		return
	}
	outcome := "rejected"
	if status == "success" {
		outcome = "success"
	}
	h.countPayment("verify", outcome)
	JSON(w, http.StatusOK, map[string]string{"status": status})
}

// number returns v as a float64 when it is a JSON number, otherwise NaN.
func number(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		return math.NaN()
	}
	return f
}
