// Package generator produces chat replies and climate-risk narratives.
//
// Two implementations exist: LiveGenerator calls the generative-language API,
// PlaceholderGenerator returns fixed, clearly labelled text. New picks one at
// startup from configuration. A LiveGenerator never surfaces dependency
// failures to its caller; it falls back to the placeholder text instead.
package generator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/insurx/insurx-web/internal/config"
	"github.com/insurx/insurx-web/internal/domain"
)

// Outcome records which path produced a reply.
type Outcome string

const (
	// OutcomeLive means the text came from the generative API.
	OutcomeLive Outcome = "live"
	// OutcomePlaceholder means no credential is configured.
	OutcomePlaceholder Outcome = "placeholder"
	// OutcomeFallback means the API failed or returned no text.
	OutcomeFallback Outcome = "fallback"
)

// Reply is generated text plus the path that produced it.
type Reply struct {
	Text    string
	Outcome Outcome
}

// Turn is one prior message of a chat conversation.
type Turn struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
}

// Location describes the property being analysed.
type Location struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Label joins the non-empty parts of the location with ", ".
func (l Location) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Address, l.City, l.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Generator produces chat replies and risk narratives. Implementations
// always return non-empty text.
type Generator interface {
	Chat(ctx context.Context, message string, history []Turn) Reply
	AnalyzeRisk(ctx context.Context, loc Location) Reply
}

// New returns a LiveGenerator when a credential is configured and a
// PlaceholderGenerator otherwise.
func New(cfg config.GeminiConfig, logger *slog.Logger) Generator {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Info("Generative API key not set, using placeholder responses")
		return PlaceholderGenerator{}
	}
	logger.Info("Generative API enabled", "model", cfg.Model)
	return NewLiveGenerator(NewClient(cfg, logger), logger)
}

// PlaceholderGenerator returns fixed text and never calls out.
type PlaceholderGenerator struct{}

// Chat returns the chat placeholder.
func (PlaceholderGenerator) Chat(context.Context, string, []Turn) Reply {
	return Reply{Text: PlaceholderChat, Outcome: OutcomePlaceholder}
}

// AnalyzeRisk returns the risk placeholder for loc.
func (PlaceholderGenerator) AnalyzeRisk(_ context.Context, loc Location) Reply {
	return Reply{Text: PlaceholderRiskAnalysis(loc), Outcome: OutcomePlaceholder}
}

// TextGenerator issues a single prompt with a system instruction.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// LiveGenerator forwards prompts to a TextGenerator and falls back to the
// placeholder text on error or empty output.
type LiveGenerator struct {
	client TextGenerator
	logger *slog.Logger
}

// NewLiveGenerator creates a generator backed by client.
func NewLiveGenerator(client TextGenerator, logger *slog.Logger) *LiveGenerator {
	return &LiveGenerator{client: client, logger: logger}
}

// Chat generates a reply to message given the recent history.
func (g *LiveGenerator) Chat(ctx context.Context, message string, history []Turn) Reply {
	prompt := BuildChatPrompt(message, history)
	g.logger.Debug("Generating chat reply", "message_len", len(message), "history_count", len(history))
	return g.generate(ctx, "chat", ChatSystemInstruction, prompt, PlaceholderChat)
}

// AnalyzeRisk generates a climate risk narrative for loc.
func (g *LiveGenerator) AnalyzeRisk(ctx context.Context, loc Location) Reply {
	g.logger.Debug("Generating risk analysis", "location", loc.Label())
	return g.generate(ctx, "analyze_risk", RiskSystemInstruction, BuildRiskPrompt(loc), PlaceholderRiskAnalysis(loc))
}

func (g *LiveGenerator) generate(ctx context.Context, op, system, prompt, fallback string) Reply {
	text, err := g.client.GenerateText(ctx, system, prompt)
	if err != nil {
		g.logger.Error("Generative API call failed, using placeholder",
			"op", op,
			"error_type", errorType(err),
			"error", err,
		)
		return Reply{Text: fallback, Outcome: OutcomeFallback}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		g.logger.Warn("Generative API returned no text, using placeholder", "op", op)
		return Reply{Text: fallback, Outcome: OutcomeFallback}
	}

	return Reply{Text: text, Outcome: OutcomeLive}
}
