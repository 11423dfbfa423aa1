package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/payment"
	"github.com/insurx/insurx-web/internal/session"
)

// CheckoutHandler starts and confirms hosted card checkouts.
type CheckoutHandler struct {
	*Handler
	payments payment.Processor
	appURL   string
}

// NewCheckoutHandler creates a CheckoutHandler. payments is nil when no
// processor is configured; appURL may be empty to use the request origin.
func NewCheckoutHandler(base *Handler, payments payment.Processor, appURL string) *CheckoutHandler {
	return &CheckoutHandler{Handler: base, payments: payments, appURL: appURL}
}

// RegisterRoutes registers checkout routes.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/checkout", h.CreateCheckout)
	r.Post("/api/auth/confirm-payment", h.ConfirmPayment)
}

// CreateCheckout starts a checkout for the selected plan and returns its URL.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		Error(w, http.StatusInternalServerError, "Payment is not configured. Please set STRIPE_SECRET_KEY.")
		return
	}

	var body fields
	if !decodeBody(w, r, &body) {
		return
	}
	email := body.str("email")
	if email == "" {
		Error(w, http.StatusBadRequest, "Email is required.")
		return
	}

	url, err := h.payments.CreateCheckout(r.Context(), payment.CheckoutRequest{
		Email:    email,
		FullName: body.str("fullName"),
		Plan:     body.str("plan"),
		BaseURL:  h.baseURL(r),
	})
	if err != nil {
		h.logger.Error("Checkout creation failed", "error", err)
		h.countPayment("create", "error")
		Error(w, http.StatusInternalServerError, "Payment could not be started. Please try again.")
		return
	}
	if url == "" {
		h.countPayment("create", "error")
		Error(w, http.StatusInternalServerError, "Failed to create checkout session.")
		return
	}

	h.countPayment("create", "success")
	JSON(w, http.StatusOK, map[string]string{"url": url})
}

// ConfirmPayment verifies a checkout and returns the resulting profile. When
// the caller already has a session its profile is replaced by the verified one.
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		Error(w, http.StatusInternalServerError, "Payment is not configured.")
		return
	}

	var body fields
	if !decodeBody(w, r, &body) {
		return
	}
	id := body.str("session_id")
	if id == "" {
		Error(w, http.StatusBadRequest, "Session ID is required.")
		return
	}

	checkout, err := h.payments.GetCheckout(r.Context(), id)
	if err != nil {
		h.logger.Error("Checkout retrieval failed", "error", err, "checkout_id", id)
		h.countPayment("confirm", "error")
		Error(w, http.StatusInternalServerError, "Could not confirm payment. Please try again.")
		return
	}

	profile, err := payment.Confirm(checkout)
	switch {
	case errors.Is(err, payment.ErrNotPaid):
		h.countPayment("confirm", "rejected")
		Error(w, http.StatusBadRequest, "Payment was not completed.")
		return
	case errors.Is(err, payment.ErrNoCustomerEmail):
		h.countPayment("confirm", "rejected")
		Error(w, http.StatusBadRequest, "Could not determine customer email.")
		return
	case err != nil:
		h.countPayment("confirm", "error")
		Error(w, http.StatusInternalServerError, "Could not confirm payment. Please try again.")
		return
	}

	if h.sessions != nil {
		_, err := h.sessions.Adopt(r, *profile)
		switch {
		case errors.Is(err, session.ErrProfileMismatch):
			h.logger.Info("Confirmed payment belongs to another account, session unchanged", "checkout_id", id)
		case err != nil:
			h.logger.Warn("Failed to attach confirmed profile to session", "error", err)
		}
	}

	h.countPayment("confirm", "success")
	h.logger.Info("Payment confirmed", "checkout_id", id, "plan", profile.Plan)
	JSON(w, http.StatusOK, map[string]any{"ok": true, "user": profileView(profile)})
}

// baseURL is the configured public URL or the request's origin.
func (h *CheckoutHandler) baseURL(r *http.Request) string {
	if h.appURL != "" {
		return h.appURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	if r.Host == "" {
		return "http://localhost:8080"
	}
	return scheme + "://" + r.Host
}

// profileView omits the empty backend ID from confirmed profiles.
func profileView(p *domain.Profile) map[string]any {
	v := map[string]any{
		"email":              p.Email,
		"fullName":           p.FullName,
		"plan":               p.Plan,
		"subscriptionStatus": p.SubscriptionStatus,
	}
	if p.ID != "" {
		v["id"] = p.ID
	}
	return v
}
