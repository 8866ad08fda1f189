package repository

import "context"

// Keys of the durable key-value store.
const (
	KeyUsers                 = "users"
	KeyCurrentUser           = "currentUser"
	KeyCurrentSessionID      = "current_session_id"
	KeySelectedPersona       = "selected_ai_role"
	KeyChatHistory           = "chat_history"
	KeyHasVisited            = "hasVisited"
	KeyCurrentConversationID = "currentConversationId"
)

// KeyValueStore is the durable string key-value storage the user registry
// and the history fallback are built on. Get reports ok=false for missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
