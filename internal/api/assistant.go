package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/insurx/insurx-web/internal/generator"
)

// AssistantHandler serves the chat and risk analysis endpoints.
type AssistantHandler struct {
	*Handler
	gen generator.Generator
}

// NewAssistantHandler creates an AssistantHandler.
func NewAssistantHandler(base *Handler, gen generator.Generator) *AssistantHandler {
	return &AssistantHandler{Handler: base, gen: gen}
}

// RegisterRoutes registers assistant routes.
func (h *AssistantHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.Chat)
	r.Post("/api/analyze-risk", h.AnalyzeRisk)
}

// Chat replies to a message given the optional prior turns.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message any             `json:"message"`
		History json.RawMessage `json:"history"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	message := fields{"message": body.Message}.str("message")
	history := parseHistory(body.History)
	h.logger.Debug("Chat request", "message_len", len(message), "history_count", len(history))

	if message == "" {
		Error(w, http.StatusBadRequest, "Message is required.")
		return
	}

	reply := h.gen.Chat(r.Context(), message, history)
	h.countGeneration("chat", string(reply.Outcome))
	JSON(w, http.StatusOK, map[string]string{"text": reply.Text})
}

// AnalyzeRisk returns a climate risk narrative for an address.
func (h *AssistantHandler) AnalyzeRisk(w http.ResponseWriter, r *http.Request) {
	var body fields
	if !decodeBody(w, r, &body) {
		return
	}

	loc := generator.Location{
		Address:    body.str("address"),
		City:       body.str("city"),
		PostalCode: body.str("postalCode"),
	}
	if loc.Address == "" || loc.City == "" {
		Error(w, http.StatusBadRequest, "Address and city are required.")
		return
	}

	reply := h.gen.AnalyzeRisk(r.Context(), loc)
	h.countGeneration("analyze_risk", string(reply.Outcome))
	JSON(w, http.StatusOK, map[string]string{"analysis": reply.Text})
}

// parseHistory accepts an array of turns and ignores anything else.
func parseHistory(raw json.RawMessage) []generator.Turn {
	if len(raw) == 0 {
		return nil
	}
	var turns []generator.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil
	}
	return turns
}
