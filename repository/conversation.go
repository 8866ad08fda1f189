package repository

import (
	"context"

	"github.com/fastygo/taskpoints/domain"
)

// ConversationRepository stores chat transcripts keyed by session id.
type ConversationRepository interface {
	// Latest returns the most recent record of a session or
	// domain.ErrConversationNotFound.
	Latest(ctx context.Context, sessionID string) (*domain.Conversation, error)
	// Save inserts the conversation when ID is zero (assigning it) and
	// replaces the stored record otherwise.
	Save(ctx context.Context, conv *domain.Conversation) error
	// List returns every record, newest first.
	List(ctx context.Context) ([]domain.Conversation, error)
	// DeleteSession removes every record of the session.
	DeleteSession(ctx context.Context, sessionID string) error
	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error
}
