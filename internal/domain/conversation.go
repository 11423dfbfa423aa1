package domain

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageMeta carries optional annotations on a chat message.
type MessageMeta struct {
	Source   string `json:"source,omitempty"`   // e.g. "analyze-risk"
	Feedback string `json:"feedback,omitempty"` // "helpful" or "not-helpful"
}

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    Role         `json:"role"`
	Content string       `json:"content"`
	Meta    *MessageMeta `json:"meta,omitempty"`
}

// Conversation is a titled chat history owned by one user.
type Conversation struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt int64         `json:"createdAt"` // unix milliseconds
}

// ConversationUpdate holds the mutable fields of a conversation.
// Nil fields are left unchanged.
type ConversationUpdate struct {
	Title    *string
	Messages []ChatMessage
}
