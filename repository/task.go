package repository

import (
	"context"

	"github.com/fastygo/taskpoints/domain"
)

// BoardRepository persists task lists and the point balance, partitioned by user.
type BoardRepository interface {
	// Load returns both task lists in stored order and the point balance.
	// A user without a balance gets a zero balance.
	Load(ctx context.Context, userID string) (*domain.Board, error)
	// Save upserts every task of both lists and the balance in one unit.
	Save(ctx context.Context, board *domain.Board) error
	// DeleteTask removes one task from the given list.
	DeleteTask(ctx context.Context, kind domain.TaskType, id int64) error
}
