// Package conversations stores chat histories per signed-in user.
package conversations

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/store"
)

// DefaultTitle is used when a conversation has no title and no user message.
const DefaultTitle = "New conversation"

const maxDerivedTitle = 60

// Service reads and writes conversations scoped by owner email.
type Service struct {
	repo  store.Repository
	clock clockwork.Clock
}

// NewService creates a Service.
func NewService(repo store.Repository, clock clockwork.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// NewID returns an ID of the form conv_<unix-ms>_<7 chars>.
func (s *Service) NewID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("conv_%d_%s", s.clock.Now().UnixMilli(), suffix)
}

// List returns owner's conversations, most recently added first.
func (s *Service) List(ctx context.Context, owner string) ([]*domain.Conversation, error) {
	return s.repo.ListConversations(ctx, ownerKey(owner))
}

// Get returns one conversation, or nil when owner has none with that ID.
func (s *Service) Get(ctx context.Context, owner, id string) (*domain.Conversation, error) {
	return s.repo.GetConversation(ctx, ownerKey(owner), id)
}

// Add stores c as owner's most recent conversation, filling in ID,
// CreatedAt and Title when they are empty.
func (s *Service) Add(ctx context.Context, owner string, c *domain.Conversation) error {
	if c.ID == "" {
		c.ID = s.NewID()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = s.clock.Now().UnixMilli()
	}
	if strings.TrimSpace(c.Title) == "" {
		c.Title = DeriveTitle(c.Messages)
	}
	if c.Messages == nil {
		c.Messages = []domain.ChatMessage{}
	}
	return s.repo.AddConversation(ctx, ownerKey(owner), c)
}

// Update changes the title and/or messages of a conversation. Unknown IDs
// are ignored and report false.
func (s *Service) Update(ctx context.Context, owner, id string, upd domain.ConversationUpdate) (bool, error) {
	return s.repo.UpdateConversation(ctx, ownerKey(owner), id, upd)
}

// DeriveTitle uses the first user message, shortened, as a title.
func DeriveTitle(messages []domain.ChatMessage) string {
	for _, m := range messages {
		if m.Role != domain.RoleUser {
			continue
		}
		text := strings.Join(strings.Fields(m.Content), " ")
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) <= maxDerivedTitle {
			return text
		}
		runes := []rune(text)
		return strings.TrimSpace(string(runes[:maxDerivedTitle])) + "…"
	}
	return DefaultTitle
}

func ownerKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
