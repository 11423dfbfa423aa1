package generator

import (
	"fmt"
	"strings"

	"github.com/insurx/insurx-web/internal/domain"
)

// MaxHistoryTurns bounds how much chat history is sent with a prompt.
const MaxHistoryTurns = 10

// ChatSystemInstruction constrains chat replies.
const ChatSystemInstruction = `You are an insurance assistant for InsurX. You help with climate risk, underwriting, and client questions. Answer in a professional, concise way. Keep responses under 400 words unless more detail is needed.`

// RiskSystemInstruction constrains risk narratives.
const RiskSystemInstruction = `You are an insurance risk analyst. Given a client's address, city, and optional postal code, you must provide a climate risk analysis for the zone.

Your response MUST follow this structure:
1. First line: give a single "Climate risk (zone): X%" where X is a percentage between 0 and 100 for the overall climate risk in that area (flood, storm, drought, fire, etc.). Be consistent and base it on typical exposure for such a location.
2. Then in plain text, briefly explain: main exposure factors (flood, storm, etc.), any notable natural hazards, and a short recommendation on coverage or pricing (1-2 sentences).
Keep the full response under 300 words, professional, and in English.`

// PlaceholderChat is returned for chat when no live reply is available.
const PlaceholderChat = "This is a mocked response. Set GEMINI_API_KEY in the environment to get real answers."

// PlaceholderRiskAnalysis is returned for risk analysis when no live reply is available.
func PlaceholderRiskAnalysis(loc Location) string {
	return strings.Join([]string{
		"**Risk analysis for:** " + loc.Label(),
		"",
		"Climate risk (zone): —%",
		"",
		"This is a mocked response. Set GEMINI_API_KEY in the environment for real risk analysis based on client address and zone data.",
		"",
		"Once Gemini is configured, the analysis will include a climate risk percentage for the zone and the factors above.",
	}, "\n")
}

// BuildChatPrompt renders the last MaxHistoryTurns turns followed by message.
// With no history the prompt is the message itself.
func BuildChatPrompt(message string, history []Turn) string {
	if len(history) == 0 {
		return message
	}
	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}

	parts := make([]string, 0, len(history))
	for _, t := range history {
		if t.Role == domain.RoleUser {
			parts = append(parts, "User: "+t.Content)
		} else {
			parts = append(parts, "Assistant: "+t.Content)
		}
	}
	return strings.Join(parts, "\n\n") + "\n\nUser: " + message
}

// BuildRiskPrompt renders the user prompt for a risk analysis.
func BuildRiskPrompt(loc Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Provide a climate risk analysis for this location. Address: %s. City: %s.", loc.Address, loc.City)
	if loc.PostalCode != "" {
		fmt.Fprintf(&b, " Postal code: %s.", loc.PostalCode)
	}
	fmt.Fprintf(&b, " Location: %s.", loc.Label())
	b.WriteString(` Your response must start with "Climate risk (zone): X%" then briefly explain the main risk factors and a short recommendation.`)
	return b.String()
}
