package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/repository"
)

type conversationRepository struct {
	db *sql.DB
}

// NewConversationRepository returns a SQLite-backed ConversationRepository.
func NewConversationRepository(db *sql.DB) repository.ConversationRepository {
	return &conversationRepository{db: db}
}

const conversationColumns = `id, session_id, messages, timestamp, persona_id, user_id`

func (r *conversationRepository) Latest(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE session_id = ? ORDER BY id DESC LIMIT 1`,
		sessionID,
	)
	return scanConversation(row)
}

func (r *conversationRepository) Save(ctx context.Context, conv *domain.Conversation) error {
	if conv == nil || conv.SessionID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	if conv.Timestamp.IsZero() {
		conv.Timestamp = time.Now()
	}

	if conv.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO conversations (session_id, messages, timestamp, persona_id, user_id) VALUES (?, ?, ?, ?, ?)`,
			conv.SessionID, string(payload), conv.Timestamp.UnixMilli(), conv.PersonaID, conv.UserID,
		)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert conversation id: %w", err)
		}
		conv.ID = id
		return nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET session_id = ?, messages = ?, timestamp = ?, persona_id = ?, user_id = ? WHERE id = ?`,
		conv.SessionID, string(payload), conv.Timestamp.UnixMilli(), conv.PersonaID, conv.UserID, conv.ID,
	)
	if err != nil {
		return fmt.Errorf("update conversation %d: %w", conv.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *conversationRepository) List(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations ORDER BY timestamp DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *conv)
	}
	return out, rows.Err()
}

func (r *conversationRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

func (r *conversationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanConversation(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Conversation, error) {
	var (
		conv     domain.Conversation
		messages string
		ts       int64
	)
	if err := row.Scan(&conv.ID, &conv.SessionID, &messages, &ts, &conv.PersonaID, &conv.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &conv.Messages); err != nil {
		return nil, fmt.Errorf("decode messages of conversation %d: %w", conv.ID, err)
	}
	conv.Timestamp = time.UnixMilli(ts)
	return &conv, nil
}
