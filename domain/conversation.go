package domain

import "time"

// MaxConversationMessages caps the messages retained per session.
const MaxConversationMessages = 50

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single role-tagged message of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the stored transcript of one chat session.
type Conversation struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
	Timestamp time.Time     `json:"timestamp"`
	PersonaID string        `json:"persona_id"`
	UserID    string        `json:"user_id,omitempty"`
}

// SessionSummary is the listing view of a conversation.
type SessionSummary struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Preview   []string  `json:"preview"`
}

// CapMessages keeps only the most recent MaxConversationMessages messages.
func CapMessages(messages []ChatMessage) []ChatMessage {
	if len(messages) > MaxConversationMessages {
		messages = messages[len(messages)-MaxConversationMessages:]
	}
	return append([]ChatMessage(nil), messages...)
}

// Summarize builds the listing view with the last two user/assistant
// messages, each cut to 50 characters.
func (c *Conversation) Summarize() SessionSummary {
	var dialog []string
	for _, m := range c.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		r := []rune(m.Content)
		if len(r) > 50 {
			r = r[:50]
		}
		dialog = append(dialog, string(r))
	}
	if len(dialog) > 2 {
		dialog = dialog[len(dialog)-2:]
	}
	return SessionSummary{
		ID:        c.ID,
		SessionID: c.SessionID,
		Timestamp: c.Timestamp,
		Preview:   dialog,
	}
}
