package usecase

import (
	"context"

	"github.com/fastygo/taskpoints/domain"
)

// SnapshotBuffer keeps board snapshots that failed to reach primary storage
// so they can be replayed later.
type SnapshotBuffer interface {
	BufferBoard(ctx context.Context, board *domain.Board) error
	// DiscardBoard drops pending snapshots of a user once a newer one was saved.
	DiscardBoard(ctx context.Context, userID string) error
}
