package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/repository"
)

// ConversationStore keeps conversations in a slice ordered by id.
type ConversationStore struct {
	mu     sync.RWMutex
	nextID int64
	convs  []domain.Conversation
}

var _ repository.ConversationRepository = (*ConversationStore)(nil)

func NewConversationStore() *ConversationStore {
	return &ConversationStore{nextID: 1}
}

func (s *ConversationStore) Latest(_ context.Context, sessionID string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.convs) - 1; i >= 0; i-- {
		if s.convs[i].SessionID == sessionID {
			c := clone(s.convs[i])
			return &c, nil
		}
	}
	return nil, domain.ErrConversationNotFound
}

func (s *ConversationStore) Save(_ context.Context, conv *domain.Conversation) error {
	if conv == nil || conv.SessionID == "" {
		return domain.ErrInvalidPayload
	}
	if conv.Timestamp.IsZero() {
		conv.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.ID == 0 {
		conv.ID = s.nextID
		s.nextID++
		s.convs = append(s.convs, clone(*conv))
		return nil
	}
	for i := range s.convs {
		if s.convs[i].ID == conv.ID {
			s.convs[i] = clone(*conv)
			return nil
		}
	}
	return domain.ErrConversationNotFound
}

func (s *ConversationStore) List(_ context.Context) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		out = append(out, clone(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *ConversationStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.convs[:0]
	for _, c := range s.convs {
		if c.SessionID != sessionID {
			kept = append(kept, c)
		}
	}
	s.convs = kept
	return nil
}

func (s *ConversationStore) Ping(context.Context) error { return nil }

func clone(c domain.Conversation) domain.Conversation {
	c.Messages = append([]domain.ChatMessage(nil), c.Messages...)
	return c
}
