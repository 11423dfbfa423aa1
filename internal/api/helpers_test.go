package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/insurx/insurx-web/internal/backend"
	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/generator"
	"github.com/insurx/insurx-web/internal/observability"
	"github.com/insurx/insurx-web/internal/payment"
	"github.com/insurx/insurx-web/internal/session"
	"github.com/insurx/insurx-web/internal/store"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	base     *Handler
	repo     *store.SQLiteStore
	sessions *session.Manager
	metrics  *observability.Metrics
	clock    *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(epoch)
	sessions := session.NewManager(session.NewSQLiteStore(repo, clock, logger), time.Hour, false, clock, logger)
	metrics := observability.NewMetricsForTesting()

	return &testEnv{
		base:     NewHandler(sessions, metrics, logger),
		repo:     repo,
		sessions: sessions,
		metrics:  metrics,
		clock:    clock,
	}
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// router wires the session middleware and the given handlers.
func (e *testEnv) router(handlers ...routeRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(session.Middleware(e.sessions, e.base.logger))
	for _, h := range handlers {
		h.RegisterRoutes(r)
	}
	return r
}

// login starts a session for p and returns its cookie.
func (e *testEnv) login(t *testing.T, p domain.Profile) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := e.sessions.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), p, "backend-token")
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func activeProfile() domain.Profile {
	return domain.Profile{
		ID:                 "u1",
		Email:              "ada@example.com",
		FullName:           "Ada",
		Plan:               domain.PlanMonthly,
		SubscriptionStatus: domain.SubscriptionActive,
	}
}

func inactiveProfile() domain.Profile {
	p := activeProfile()
	p.SubscriptionStatus = domain.SubscriptionInactive
	return p
}

func do(t *testing.T, h http.Handler, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// fakeGenerator records calls and returns fixed replies.
type fakeGenerator struct {
	reply       generator.Reply
	lastMessage string
	lastHistory []generator.Turn
	lastLoc     generator.Location
}

func (g *fakeGenerator) Chat(_ context.Context, message string, history []generator.Turn) generator.Reply {
	g.lastMessage = message
	g.lastHistory = history
	return g.reply
}

func (g *fakeGenerator) AnalyzeRisk(_ context.Context, loc generator.Location) generator.Reply {
	g.lastLoc = loc
	return g.reply
}

type fakeProcessor struct {
	url      string
	err      error
	checkout *payment.CheckoutSession
	lastReq  payment.CheckoutRequest
}

func (p *fakeProcessor) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (string, error) {
	p.lastReq = req
	return p.url, p.err
}

func (p *fakeProcessor) GetCheckout(_ context.Context, _ string) (*payment.CheckoutSession, error) {
	return p.checkout, p.err
}

type fakeBackend struct {
	auth       *backend.AuthResult
	err        error
	dashboard  *domain.Dashboard
	area       *domain.MonitoringArea
	assessment *domain.Assessment
	payURL     string
	payStatus  string
	lastToken  string
	lastPlan   domain.Plan
	lastEmail  string
	lastAmount int64
	lastCurr   string
}

func (b *fakeBackend) Login(_ context.Context, email, _ string) (*backend.AuthResult, error) {
	b.lastEmail = email
	return b.auth, b.err
}

func (b *fakeBackend) Signup(_ context.Context, _, email, _ string, plan domain.Plan) (*backend.AuthResult, error) {
	b.lastEmail = email
	b.lastPlan = plan
	return b.auth, b.err
}

func (b *fakeBackend) Dashboard(_ context.Context, token string) (*domain.Dashboard, error) {
	b.lastToken = token
	return b.dashboard, b.err
}

func (b *fakeBackend) GetMonitoringConfig(_ context.Context, token string) (*domain.MonitoringArea, error) {
	b.lastToken = token
	return b.area, b.err
}

func (b *fakeBackend) SetMonitoringConfig(_ context.Context, token, start, end string) (*domain.MonitoringArea, error) {
	b.lastToken = token
	return &domain.MonitoringArea{StartArea: start, EndArea: end}, b.err
}

func (b *fakeBackend) CreateAssessment(_ context.Context, token, _ string, _ float64) (*domain.Assessment, error) {
	b.lastToken = token
	return b.assessment, b.err
}

func (b *fakeBackend) InitiatePayment(_ context.Context, token, email string, amount int64, currency string) (string, error) {
	b.lastToken = token
	b.lastEmail = email
	b.lastAmount = amount
	b.lastCurr = currency
	return b.payURL, b.err
}

func (b *fakeBackend) VerifyPayment(_ context.Context, token, _ string) (string, error) {
	b.lastToken = token
	return b.payStatus, b.err
}
