package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/insurx/insurx-web/internal/conversations"
	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/session"
)

// ConversationHandler serves the signed-in user's chat history.
type ConversationHandler struct {
	*Handler
	svc *conversations.Service
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(base *Handler, svc *conversations.Service) *ConversationHandler {
	return &ConversationHandler{Handler: base, svc: svc}
}

// RegisterRoutes registers conversation routes.
func (h *ConversationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/conversations", func(r chi.Router) {
		r.Use(session.RequireSession)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
	})
}

func owner(r *http.Request) string {
	return session.FromContext(r.Context()).Profile.Email
}

// List returns conversations, most recent first.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), owner(r))
	if err != nil {
		h.logger.Error("Failed to list conversations", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to load conversations.")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"conversations": list})
}

// Create stores a new conversation at the front of the list.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c domain.Conversation
	if !decodeBody(w, r, &c) {
		return
	}
	if !validMessages(c.Messages) {
		Error(w, http.StatusBadRequest, "Messages must have role user or assistant.")
		return
	}
	c.ID = strings.TrimSpace(c.ID)

	if err := h.svc.Add(r.Context(), owner(r), &c); err != nil {
		h.logger.Error("Failed to add conversation", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to save conversation.")
		return
	}
	JSON(w, http.StatusCreated, c)
}

// Get returns one conversation.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("Failed to load conversation", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to load conversation.")
		return
	}
	if c == nil {
		Error(w, http.StatusNotFound, "Conversation not found.")
		return
	}
	JSON(w, http.StatusOK, c)
}

// Update changes the title and/or messages of a conversation.
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title    *string         `json:"title"`
		Messages json.RawMessage `json:"messages"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	var upd domain.ConversationUpdate
	upd.Title = body.Title
	if len(body.Messages) > 0 && string(body.Messages) != "null" {
		if err := json.Unmarshal(body.Messages, &upd.Messages); err != nil {
			Error(w, http.StatusBadRequest, msgInvalidBody)
			return
		}
		if upd.Messages == nil {
			upd.Messages = []domain.ChatMessage{}
		}
		if !validMessages(upd.Messages) {
			Error(w, http.StatusBadRequest, "Messages must have role user or assistant.")
			return
		}
	}

	id := chi.URLParam(r, "id")
	found, err := h.svc.Update(r.Context(), owner(r), id, upd)
	if err != nil {
		h.logger.Error("Failed to update conversation", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to save conversation.")
		return
	}
	if !found {
		Error(w, http.StatusNotFound, "Conversation not found.")
		return
	}

	c, err := h.svc.Get(r.Context(), owner(r), id)
	if err != nil || c == nil {
		JSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	JSON(w, http.StatusOK, c)
}

func validMessages(messages []domain.ChatMessage) bool {
	for _, m := range messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return false
		}
	}
	return true
}
