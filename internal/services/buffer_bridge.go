package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/internal/infrastructure/local"
	"github.com/fastygo/taskpoints/usecase"
)

// BufferBridge adapts the processor to the use case buffer port. Only the
// newest snapshot of a user is kept.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferBoard(ctx context.Context, board *domain.Board) error {
	if b.processor == nil || board == nil || board.UserID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(board)
	if err != nil {
		return err
	}
	if err := b.processor.Discard(ctx, board.UserID); err != nil {
		return err
	}
	return b.processor.Enqueue(ctx, local.Item{
		UserID:    board.UserID,
		Entity:    local.EntityBoard,
		Operation: local.OperationSave,
		Data:      payload,
		Priority:  2,
	})
}

func (b *BufferBridge) DiscardBoard(ctx context.Context, userID string) error {
	if b.processor == nil {
		return nil
	}
	return b.processor.Discard(ctx, userID)
}

var _ usecase.SnapshotBuffer = (*BufferBridge)(nil)
