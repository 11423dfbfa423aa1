package conversations

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insurx/insurx-web/internal/domain"
	"github.com/insurx/insurx-web/internal/store"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *clockwork.FakeClock) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	clock := clockwork.NewFakeClockAt(epoch)
	return NewService(repo, clock), clock
}

func TestNewID(t *testing.T) {
	svc, _ := newTestService(t)

	id := svc.NewID()
	assert.Regexp(t, regexp.MustCompile(`^conv_\d+_[0-9a-f]{7}$`), id)
	assert.True(t, strings.HasPrefix(id, "conv_1772366400000_"), id)
	assert.NotEqual(t, id, svc.NewID())
}

func TestAddAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c := &domain.Conversation{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "Is Lekki flood prone?"},
			{Role: domain.RoleAssistant, Content: "Yes.", Meta: &domain.MessageMeta{Source: "analyze-risk"}},
		},
	}
	require.NoError(t, svc.Add(ctx, "Ada@Example.com", c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, epoch.UnixMilli(), c.CreatedAt)
	assert.Equal(t, "Is Lekki flood prone?", c.Title)

	got, err := svc.Get(ctx, "ada@example.com", c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.Messages, got.Messages)

	other, err := svc.Get(ctx, "bob@example.com", c.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestListMostRecentFirst(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, svc.Add(ctx, "ada@example.com", &domain.Conversation{Title: title}))
		clock.Advance(time.Second)
	}

	list, err := svc.List(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c := &domain.Conversation{Title: "old"}
	require.NoError(t, svc.Add(ctx, "ada@example.com", c))

	title := "renamed"
	found, err := svc.Update(ctx, "ada@example.com", c.ID, domain.ConversationUpdate{Title: &title})
	require.NoError(t, err)
	assert.True(t, found)

	got, err := svc.Get(ctx, "ada@example.com", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	found, err = svc.Update(ctx, "ada@example.com", "conv_missing", domain.ConversationUpdate{Title: &title})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, DefaultTitle, DeriveTitle(nil))
	assert.Equal(t, DefaultTitle, DeriveTitle([]domain.ChatMessage{{Role: domain.RoleAssistant, Content: "hi"}}))
	assert.Equal(t, "a b", DeriveTitle([]domain.ChatMessage{{Role: domain.RoleUser, Content: "  a \n b "}}))

	long := strings.Repeat("x", 100)
	title := DeriveTitle([]domain.ChatMessage{{Role: domain.RoleUser, Content: long}})
	assert.Equal(t, strings.Repeat("x", 60)+"…", title)
}
