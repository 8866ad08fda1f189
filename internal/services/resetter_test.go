package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingBoard struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (b *countingBoard) ResetRecurring(_ context.Context, now time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, now)
	return 1, b.err
}

func TestResetterTickPassesClock(t *testing.T) {
	board := &countingBoard{err: errors.New("offline")}
	r := NewResetter(board, time.Minute, nil)
	fixed := time.Date(2025, 7, 1, 0, 0, 1, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Tick(context.Background())
	r.Tick(context.Background())

	if len(board.calls) != 2 || !board.calls[0].Equal(fixed) {
		t.Errorf("calls = %v", board.calls)
	}
}

func TestResetterStartTicksImmediately(t *testing.T) {
	board := &countingBoard{}
	r := NewResetter(board, time.Hour, nil)
	r.Start()
	defer r.Stop(context.Background())

	board.mu.Lock()
	defer board.mu.Unlock()
	if len(board.calls) != 1 {
		t.Errorf("calls = %d, want 1 after Start", len(board.calls))
	}
}
