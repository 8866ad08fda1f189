package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RecurringBoard is the part of the board use case the resetter drives.
type RecurringBoard interface {
	ResetRecurring(ctx context.Context, now time.Time) (int, error)
}

// Resetter periodically resets daily tasks of the active board.
type Resetter struct {
	board    RecurringBoard
	interval time.Duration
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func NewResetter(board RecurringBoard, interval time.Duration, logger *zap.Logger) *Resetter {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resetter{
		board:    board,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	r.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		r.Tick(ctx)
	}))
	return r
}

// Start runs one tick right away, then schedules the rest.
func (r *Resetter) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	r.Tick(ctx)
	cancel()
	r.cron.Start()
	r.logger.Info("recurring resetter started", zap.Duration("interval", r.interval))
}

func (r *Resetter) Stop(ctx context.Context) {
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("recurring resetter stopped")
}

// Tick performs a single reset pass.
func (r *Resetter) Tick(ctx context.Context) {
	n, err := r.board.ResetRecurring(ctx, r.now())
	if err != nil {
		r.logger.Error("recurring reset failed", zap.Int("reset", n), zap.Error(err))
	}
}
