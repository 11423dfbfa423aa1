package api

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/generator"
)

func TestChat(t *testing.T) {
	env := newTestEnv(t)
	gen := &fakeGenerator{reply: generator.Reply{Text: "Flood cover protects...", Outcome: generator.OutcomeLive}}
	h := env.router(NewAssistantHandler(env.base, gen))

	rec := do(t, h, http.MethodPost, "/api/chat",
		`{"message":"  What is flood cover?  ","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"Flood cover protects..."}`, rec.Body.String())
	assert.Equal(t, "What is flood cover?", gen.lastMessage)
	assert.Equal(t, []generator.Turn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}, gen.lastHistory)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Generations.WithLabelValues("chat", "live")), 0)
}

func TestChat_PlaceholderAlwaysHasText(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(NewAssistantHandler(env.base, generator.PlaceholderGenerator{}))

	rec := do(t, h, http.MethodPost, "/api/chat", `{"message":"hello"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, generator.PlaceholderChat, decode(t, rec)["text"])
}

func TestChat_InvalidHistoryIgnored(t *testing.T) {
	env := newTestEnv(t)
	gen := &fakeGenerator{reply: generator.Reply{Text: "ok"}}
	h := env.router(NewAssistantHandler(env.base, gen))

	rec := do(t, h, http.MethodPost, "/api/chat", `{"message":"hello","history":"nope"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gen.lastHistory)
}

func TestChat_Validation(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(NewAssistantHandler(env.base, generator.PlaceholderGenerator{}))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing", `{}`, "Message is required."},
		{"blank", `{"message":"   "}`, "Message is required."},
		{"not a string", `{"message":42}`, "Message is required."},
		{"malformed", `{"message":`, "Invalid request body."},
		{"null body", `null`, "Invalid request body."},
		{"array body", `["hi"]`, "Invalid request body."},
		{"trailing data", `{"message":"hi"} {}`, "Invalid request body."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/chat", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["error"])
		})
	}
}

func TestAnalyzeRisk_Placeholder(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(NewAssistantHandler(env.base, generator.PlaceholderGenerator{}))

	rec := do(t, h, http.MethodPost, "/api/analyze-risk", `{"address":" 12 Marina Rd ","city":"Lagos","postalCode":"101001"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	analysis, _ := decode(t, rec)["analysis"].(string)
	assert.Contains(t, analysis, "12 Marina Rd, Lagos, 101001")
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Generations.WithLabelValues("analyze_risk", "placeholder")), 0)
}

func TestAnalyzeRisk_PassesLocation(t *testing.T) {
	env := newTestEnv(t)
	gen := &fakeGenerator{reply: generator.Reply{Text: "Climate risk (zone): 40%", Outcome: generator.OutcomeLive}}
	h := env.router(NewAssistantHandler(env.base, gen))

	rec := do(t, h, http.MethodPost, "/api/analyze-risk", `{"address":"1 Main St","city":"Austin","postalCode":7}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, generator.Location{Address: "1 Main St", City: "Austin"}, gen.lastLoc)
	assert.JSONEq(t, `{"analysis":"Climate risk (zone): 40%"}`, rec.Body.String())
}

func TestAnalyzeRisk_Validation(t *testing.T) {
	env := newTestEnv(t)
	h := env.router(NewAssistantHandler(env.base, generator.PlaceholderGenerator{}))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing city", `{"address":"1 Main St"}`, "Address and city are required."},
		{"missing address", `{"city":"Austin"}`, "Address and city are required."},
		{"blank address", `{"address":"  ","city":"Austin"}`, "Address and city are required."},
		{"non-string city", `{"address":"1 Main St","city":true}`, "Address and city are required."},
		{"malformed", `not json`, "Invalid request body."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/analyze-risk", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["error"])
		})
	}
}
