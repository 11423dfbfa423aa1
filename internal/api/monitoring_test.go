package api

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insurx/insurx-web/internal/backend"
	"github.com/insurx/insurx-web/internal/domain"
)

func TestMonitoring_Guard(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(NewMonitoringHandler(env.base, &fakeBackend{dashboard: &domain.Dashboard{}}))

	rec := do(t, h, http.MethodGet, "/api/monitoring/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/monitoring/dashboard", "", env.login(t, inactiveProfile()))
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "subscription inactive", decode(t, rec)["error"])

	rec = do(t, h, http.MethodGet, "/api/monitoring/dashboard", "", env.login(t, activeProfile()))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.GuardDecisions.WithLabelValues("login")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.GuardDecisions.WithLabelValues("inactive")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.GuardDecisions.WithLabelValues("allow")), 0)
}

func TestMonitoring_Dashboard(t *testing.T) {
	env := newTestEnv(t)
	b := &fakeBackend{dashboard: &domain.Dashboard{
		MonitoringArea: domain.MonitoringArea{StartArea: "Lekki", EndArea: "Ikoyi"},
		ClimateData:    domain.ClimateData{Status: "Moderate"},
	}}
	h := env.router(NewMonitoringHandler(env.base, b))

	rec := do(t, h, http.MethodGet, "/api/monitoring/dashboard", "", env.login(t, activeProfile()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "backend-token", b.lastToken)
	area, _ := decode(t, rec)["monitoringArea"].(map[string]any)
	assert.Equal(t, "Lekki", area["startArea"])
}

func TestMonitoring_DashboardNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(NewMonitoringHandler(env.base, &fakeBackend{err: backend.ErrNotConfigured}))

	rec := do(t, h, http.MethodGet, "/api/monitoring/dashboard", "", env.login(t, activeProfile()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "monitoring not configured", decode(t, rec)["error"])
}

func TestMonitoring_Config(t *testing.T) {
	env := newTestEnv(t)
	b := &fakeBackend{area: &domain.MonitoringArea{StartArea: "A", EndArea: "B"}}
	h := env.router(NewMonitoringHandler(env.base, b))
	cookie := env.login(t, activeProfile())

	rec := do(t, h, http.MethodGet, "/api/monitoring/config", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", decode(t, rec)["startArea"])

	rec = do(t, h, http.MethodPost, "/api/monitoring/config", `{"startArea":"C","endArea":"D"}`, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "D", decode(t, rec)["endArea"])

	rec = do(t, h, http.MethodPost, "/api/monitoring/config", `{"startArea":"C"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRiskAssessment(t *testing.T) {
	env := newTestEnv(t)
	b := &fakeBackend{assessment: &domain.Assessment{RiskScore: 72, HazardScore: 60, AIAnalysis: "Flood prone"}}
	h := env.router(NewMonitoringHandler(env.base, b))
	cookie := env.login(t, activeProfile())

	rec := do(t, h, http.MethodPost, "/api/risk-assessment", `{"location":"Lagos","propertyValue":250000}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	a, _ := decode(t, rec)["assessment"].(map[string]any)
	assert.InDelta(t, 72.0, a["riskScore"], 0.001)

	for _, body := range []string{
		`{"location":"","propertyValue":1}`,
		`{"location":"Lagos","propertyValue":0}`,
		`{"location":"Lagos","propertyValue":"100"}`,
	} {
		rec = do(t, h, http.MethodPost, "/api/risk-assessment", body, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestBackendPayments_SessionOnly(t *testing.T) {
	env := newTestEnv(t)
	b := &fakeBackend{payURL: "https://pay.test/abc", payStatus: "success"}
	h := env.router(NewMonitoringHandler(env.base, b))

	rec := do(t, h, http.MethodPost, "/api/payment/initiate", `{"amount":5000}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := env.login(t, inactiveProfile())
	rec = do(t, h, http.MethodPost, "/api/payment/initiate", `{"amount":5000}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://pay.test/abc", decode(t, rec)["authorization_url"])
	assert.Equal(t, "ada@example.com", b.lastEmail)
	assert.Equal(t, int64(5000), b.lastAmount)
	assert.Equal(t, "NGN", b.lastCurr)

	rec = do(t, h, http.MethodPost, "/api/payment/initiate", `{"amount":-1}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/payment/verify/ref_123", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decode(t, rec)["status"])
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Payments.WithLabelValues("verify", "success")), 0)
}
