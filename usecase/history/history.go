package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/logger"
	"github.com/fastygo/taskpoints/repository"
)

// DefaultPersona is used when no persona was selected.
const DefaultPersona = "default"

// Store keeps chat transcripts per session. Conversations go to the primary
// repository; whenever it is missing or fails, a single transcript is kept
// under the chat_history key instead.
type Store struct {
	primary repository.ConversationRepository
	kv      repository.KeyValueStore
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New builds the store. A nil primary runs in degraded mode from the start.
func New(primary repository.ConversationRepository, kv repository.KeyValueStore, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		primary: primary,
		kv:      kv,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Degraded reports whether only the key-value fallback is available.
func (s *Store) Degraded() bool {
	return s.primary == nil
}

// SessionID returns the active session id, creating one when missing.
func (s *Store) SessionID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.kv.Get(ctx, repository.KeyCurrentSessionID)
	if err != nil {
		return "", fmt.Errorf("read session id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}
	return s.newSessionLocked(ctx)
}

// NewSession starts a new session and makes it active.
func (s *Store) NewSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newSessionLocked(ctx)
}

func (s *Store) newSessionLocked(ctx context.Context) (string, error) {
	id := fmt.Sprintf("session_%d", s.now().UnixMilli())
	if err := s.kv.Set(ctx, repository.KeyCurrentSessionID, id); err != nil {
		return "", fmt.Errorf("store session id: %w", err)
	}
	return id, nil
}

// Save writes the last messages of the active session.
func (s *Store) Save(ctx context.Context, messages []domain.ChatMessage, userID string) error {
	capped := domain.CapMessages(messages)
	if s.primary != nil {
		err := s.savePrimary(ctx, capped, userID)
		if err == nil {
			return nil
		}
		logger.FromContext(ctx, s.logger).Warn("conversation store failed, using fallback", zap.Error(err))
	}
	return s.saveFallback(ctx, capped)
}

func (s *Store) savePrimary(ctx context.Context, messages []domain.ChatMessage, userID string) error {
	sessionID, err := s.SessionID(ctx)
	if err != nil {
		return err
	}
	latest, err := s.latest(ctx, sessionID)
	if err != nil {
		return err
	}
	if latest != nil {
		latest.Messages = messages
		latest.Timestamp = s.now()
		return s.primary.Save(ctx, latest)
	}
	return s.primary.Save(ctx, &domain.Conversation{
		SessionID: sessionID,
		Messages:  messages,
		Timestamp: s.now(),
		PersonaID: s.Persona(ctx),
		UserID:    userID,
	})
}

func (s *Store) saveFallback(ctx context.Context, messages []domain.ChatMessage) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	if err := s.kv.Set(ctx, repository.KeyChatHistory, string(raw)); err != nil {
		return domain.ErrPersistFailed.With(err)
	}
	return nil
}

// Load returns the messages of the active session. A record owned by a
// different user yields no messages. An empty userID disables the check.
func (s *Store) Load(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	if s.primary != nil {
		messages, err := s.loadPrimary(ctx, userID)
		if err == nil {
			return messages, nil
		}
		logger.FromContext(ctx, s.logger).Warn("conversation store failed, using fallback", zap.Error(err))
	}
	return s.loadFallback(ctx)
}

func (s *Store) loadPrimary(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	sessionID, err := s.SessionID(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.latest(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if latest == nil || (userID != "" && latest.UserID != userID) {
		return []domain.ChatMessage{}, nil
	}
	return domain.CapMessages(latest.Messages), nil
}

func (s *Store) loadFallback(ctx context.Context) ([]domain.ChatMessage, error) {
	raw, ok, err := s.kv.Get(ctx, repository.KeyChatHistory)
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}
	if !ok || raw == "" {
		return []domain.ChatMessage{}, nil
	}
	var messages []domain.ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		logger.FromContext(ctx, s.logger).Warn("discarding unreadable chat history", zap.Error(err))
		return []domain.ChatMessage{}, nil
	}
	return domain.CapMessages(messages), nil
}

// Sessions lists every stored conversation, newest first. Failures yield an
// empty list.
func (s *Store) Sessions(ctx context.Context) []domain.SessionSummary {
	if s.primary == nil {
		return []domain.SessionSummary{}
	}
	convs, err := s.primary.List(ctx)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("failed to list sessions", zap.Error(err))
		return []domain.SessionSummary{}
	}
	out := make([]domain.SessionSummary, 0, len(convs))
	for i := range convs {
		out = append(out, convs[i].Summarize())
	}
	return out
}

// Switch makes sessionID active and returns its messages.
func (s *Store) Switch(ctx context.Context, sessionID, userID string) ([]domain.ChatMessage, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidPayload.With(errors.New("empty session id"))
	}
	s.mu.Lock()
	err := s.kv.Set(ctx, repository.KeyCurrentSessionID, sessionID)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("store session id: %w", err)
	}
	return s.Load(ctx, userID)
}

// DeleteSession removes every record of sessionID.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if s.primary == nil {
		return domain.ErrStorageUnavailable
	}
	if err := s.primary.DeleteSession(ctx, sessionID); err != nil {
		return domain.ErrPersistFailed.With(err)
	}
	return nil
}

// SelectPersona stores the persona for new conversations and updates the
// active session's record when one exists.
func (s *Store) SelectPersona(ctx context.Context, personaID string) error {
	if err := s.kv.Set(ctx, repository.KeySelectedPersona, personaID); err != nil {
		return domain.ErrPersistFailed.With(err)
	}
	if s.primary == nil {
		return nil
	}
	sessionID, err := s.SessionID(ctx)
	if err != nil {
		return err
	}
	latest, err := s.latest(ctx, sessionID)
	if err != nil || latest == nil {
		return err
	}
	latest.PersonaID = personaID
	if err := s.primary.Save(ctx, latest); err != nil {
		logger.FromContext(ctx, s.logger).Warn("failed to update session persona", zap.Error(err))
	}
	return nil
}

// Persona returns the selected persona id or DefaultPersona.
func (s *Store) Persona(ctx context.Context) string {
	id, ok, err := s.kv.Get(ctx, repository.KeySelectedPersona)
	if err != nil || !ok || id == "" {
		return DefaultPersona
	}
	return id
}

func (s *Store) latest(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	conv, err := s.primary.Latest(ctx, sessionID)
	if errors.Is(err, domain.ErrConversationNotFound) {
		return nil, nil
	}
	return conv, err
}
