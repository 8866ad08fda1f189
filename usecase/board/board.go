package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/logger"
	"github.com/fastygo/taskpoints/repository"
	"github.com/fastygo/taskpoints/usecase"
)

// UseCase owns the active user's task lists and point balance. Every
// mutation is written to the repository before it returns; when that write
// fails the snapshot is handed to the buffer for a later replay.
type UseCase struct {
	repo   repository.BoardRepository
	buffer usecase.SnapshotBuffer
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	userID string
	short  []domain.Task
	long   []domain.Task
	points domain.Points
}

type Option func(*UseCase)

// WithClock replaces time.Now, used for task ids and recurrence days.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

func New(repo repository.BoardRepository, buffer usecase.SnapshotBuffer, log *zap.Logger, opts ...Option) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	uc := &UseCase{
		repo:   repo,
		buffer: buffer,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Activate loads the board of userID and makes it the working set.
func (uc *UseCase) Activate(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrNoActiveSession
	}
	board, err := uc.repo.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load board of %s: %w", userID, err)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.userID = userID
	uc.short = board.ShortTasks
	uc.long = board.LongTasks
	uc.points = board.Points
	uc.points.UserID = userID
	return nil
}

// Deactivate drops the working set, e.g. on logout.
func (uc *UseCase) Deactivate() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.userID = ""
	uc.short = nil
	uc.long = nil
	uc.points = domain.Points{}
}

// ActiveUser returns the user whose board is loaded, or "".
func (uc *UseCase) ActiveUser() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.userID
}

// Snapshot returns a copy of the working set.
func (uc *UseCase) Snapshot() (*domain.Board, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.userID == "" {
		return nil, domain.ErrNoActiveSession
	}
	return uc.snapshotLocked(), nil
}

// Points returns the active balance.
func (uc *UseCase) Points() (domain.Points, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.userID == "" {
		return domain.Points{}, domain.ErrNoActiveSession
	}
	return uc.points, nil
}

// AddTask appends a task built from draft to the list of the given type.
// The task stays in memory even when persisting fails; the error is then
// domain.ErrPersistFailed.
func (uc *UseCase) AddTask(ctx context.Context, kind domain.TaskType, draft domain.TaskDraft) (*domain.Task, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidTaskType
	}
	if draft.Period != "" && !draft.Period.IsValid() {
		return nil, domain.ErrInvalidPayload.With(fmt.Errorf("period %q", draft.Period))
	}

	uc.mu.Lock()
	if uc.userID == "" {
		uc.mu.Unlock()
		return nil, domain.ErrNoActiveSession
	}
	now := uc.now()
	list := uc.list(kind)

	id := now.UnixMilli()
	for indexOf(*list, id) >= 0 {
		id++
	}
	task := domain.Task{
		ID:       id,
		Name:     strings.TrimSpace(draft.Name),
		Start:    orDefault(draft.Start, domain.DefaultStart),
		End:      orDefault(draft.End, domain.DefaultEnd),
		Duration: orDefault(draft.Duration, domain.DefaultDuration),
		Point:    draft.Point,
		Tip:      orDefault(draft.Tip, domain.DefaultTip),
		Type:     kind,
		Period:   draft.Period,
		UserID:   uc.userID,
	}
	if task.Period == "" {
		task.Period = domain.PeriodNone
	}
	if task.Period == domain.PeriodDaily {
		// A fresh daily task counts as already reset today.
		task.LastReset = domain.Day(now)
	}
	*list = append(*list, task)
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	return &task, uc.save(ctx, snap)
}

// DeleteTask removes a task. When the durable delete fails the task is put
// back at its former index and domain.ErrPersistFailed is returned. After a
// successful delete the remaining board is saved again, which also replaces
// any snapshot still waiting in the buffer.
func (uc *UseCase) DeleteTask(ctx context.Context, kind domain.TaskType, id int64) error {
	if !kind.IsValid() {
		return domain.ErrInvalidTaskType
	}

	uc.mu.Lock()
	if uc.userID == "" {
		uc.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	list := uc.list(kind)
	idx := indexOf(*list, id)
	if idx < 0 {
		uc.mu.Unlock()
		return domain.ErrTaskNotFound
	}
	removed := (*list)[idx]
	*list = slices.Delete(*list, idx, idx+1)
	owner := uc.userID
	uc.mu.Unlock()

	err := uc.repo.DeleteTask(ctx, kind, id)
	if err == nil || errors.Is(err, domain.ErrTaskNotFound) {
		// A snapshot buffered by an earlier failed save still holds the task;
		// replace it so a later drain cannot bring the row back.
		uc.mu.Lock()
		var snap *domain.Board
		if uc.userID == owner {
			snap = uc.snapshotLocked()
		}
		uc.mu.Unlock()
		if snap != nil {
			if saveErr := uc.save(ctx, snap); saveErr != nil {
				logger.FromContext(ctx, uc.logger).Warn("task deleted but board not saved",
					zap.Int64("task_id", id),
					zap.Error(saveErr),
				)
			}
		}
		return nil
	}

	uc.mu.Lock()
	if uc.userID == owner {
		list = uc.list(kind)
		*list = slices.Insert(*list, min(idx, len(*list)), removed)
	}
	uc.mu.Unlock()

	logger.FromContext(ctx, uc.logger).Error("failed to delete task, restored",
		zap.String("type", string(kind)),
		zap.Int64("task_id", id),
		zap.Error(err),
	)
	return domain.ErrPersistFailed.With(err)
}

// ToggleTask flips the completion flag and returns the updated task.
func (uc *UseCase) ToggleTask(ctx context.Context, kind domain.TaskType, id int64) (*domain.Task, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidTaskType
	}

	uc.mu.Lock()
	if uc.userID == "" {
		uc.mu.Unlock()
		return nil, domain.ErrNoActiveSession
	}
	list := uc.list(kind)
	idx := indexOf(*list, id)
	if idx < 0 {
		uc.mu.Unlock()
		return nil, domain.ErrTaskNotFound
	}
	(*list)[idx].Completed = !(*list)[idx].Completed
	task := (*list)[idx]
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	return &task, uc.save(ctx, snap)
}

// UpdateTaskOrder reorders the list of the given type. Only the ids of
// order are used; every entry is taken from the stored list, so a reorder
// cannot change task contents or ownership. Entries naming another owner
// are rejected, unknown ids yield domain.ErrTaskNotFound. Current tasks
// missing from order keep their relative order after the reordered ones.
func (uc *UseCase) UpdateTaskOrder(ctx context.Context, kind domain.TaskType, order []domain.Task) ([]domain.Task, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidTaskType
	}

	uc.mu.Lock()
	if uc.userID == "" {
		uc.mu.Unlock()
		return nil, domain.ErrNoActiveSession
	}
	active := uc.userID
	current := *uc.list(kind)

	seen := make(map[int64]struct{}, len(order))
	next := make([]domain.Task, 0, len(order))
	for _, t := range order {
		if t.UserID != "" && t.UserID != active {
			uc.mu.Unlock()
			return nil, domain.ErrTaskOwnership
		}
		if _, dup := seen[t.ID]; dup {
			uc.mu.Unlock()
			return nil, domain.ErrInvalidPayload.With(fmt.Errorf("duplicate task id %d", t.ID))
		}
		idx := indexOf(current, t.ID)
		if idx < 0 || current[idx].UserID != active {
			uc.mu.Unlock()
			return nil, domain.ErrTaskNotFound.With(fmt.Errorf("task %d", t.ID))
		}
		seen[t.ID] = struct{}{}
		next = append(next, current[idx])
	}

	list := uc.list(kind)
	var foreign, missing []domain.Task
	for _, t := range *list {
		switch {
		case t.UserID != active:
			foreign = append(foreign, t)
		case !has(seen, t.ID):
			missing = append(missing, t)
		}
	}
	*list = append(append(foreign, next...), missing...)
	result := append([]domain.Task(nil), *list...)
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	return result, uc.save(ctx, snap)
}

// Spend deducts amount and appends line to the ledger. The balance never
// goes negative through spending.
func (uc *UseCase) Spend(ctx context.Context, amount int, line string) (domain.Points, error) {
	if amount < 0 {
		return domain.Points{}, domain.ErrInvalidPayload.With(fmt.Errorf("negative amount %d", amount))
	}

	uc.mu.Lock()
	if uc.userID == "" {
		uc.mu.Unlock()
		return domain.Points{}, domain.ErrNoActiveSession
	}
	if uc.points.Total < amount {
		uc.mu.Unlock()
		return domain.Points{}, domain.ErrInsufficientPoints
	}
	uc.points.Total -= amount
	uc.points.Ledger += line
	points := uc.points
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	return points, uc.save(ctx, snap)
}

// Credit adds amount to the balance, appending line to the ledger.
func (uc *UseCase) Credit(ctx context.Context, amount int, line string) (domain.Points, error) {
	if amount < 0 {
		return domain.Points{}, domain.ErrInvalidPayload.With(fmt.Errorf("negative amount %d", amount))
	}

	uc.mu.Lock()
	if uc.userID == "" {
		uc.mu.Unlock()
		return domain.Points{}, domain.ErrNoActiveSession
	}
	uc.points.Total += amount
	uc.points.Ledger += line
	points := uc.points
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	return points, uc.save(ctx, snap)
}

// Award credits amount with a timestamped ledger line naming reason.
func (uc *UseCase) Award(ctx context.Context, amount int, reason string) (domain.Points, error) {
	if amount <= 0 {
		return domain.Points{}, domain.ErrInvalidPayload.With(fmt.Errorf("amount must be positive, got %d", amount))
	}
	line := fmt.Sprintf("%s %s: +%d\n", uc.now().Format("2006-01-02 15:04:05"), orDefault(strings.TrimSpace(reason), "bonus"), amount)
	return uc.Credit(ctx, amount, line)
}

// ResetRecurring clears the completion flag of every daily task not yet
// reset on now's day. A task that was still incomplete costs its point
// value. Missed days collapse into a single reset. It returns the number of
// tasks reset.
func (uc *UseCase) ResetRecurring(ctx context.Context, now time.Time) (int, error) {
	day := domain.Day(now)

	uc.mu.Lock()
	if uc.userID == "" {
		uc.mu.Unlock()
		return 0, nil
	}
	var reset, debited int
	var ledger strings.Builder
	for _, list := range []*[]domain.Task{&uc.short, &uc.long} {
		for i := range *list {
			t := &(*list)[i]
			if !t.DueForReset(day) {
				continue
			}
			if !t.Completed {
				debited += t.Point
				fmt.Fprintf(&ledger, "%s missed %s: -%d\n", day, t.Name, t.Point)
			}
			t.Completed = false
			t.LastReset = day
			reset++
		}
	}
	if reset == 0 {
		uc.mu.Unlock()
		return 0, nil
	}
	uc.points.Total -= debited
	uc.points.Ledger += ledger.String()
	snap := uc.snapshotLocked()
	uc.mu.Unlock()

	logger.FromContext(ctx, uc.logger).Info("recurring tasks reset",
		zap.String("user_id", snap.UserID),
		zap.String("day", day),
		zap.Int("reset", reset),
		zap.Int("debited", debited),
	)
	return reset, uc.save(ctx, snap)
}

func (uc *UseCase) save(ctx context.Context, snap *domain.Board) error {
	log := logger.FromContext(ctx, uc.logger)
	if err := uc.repo.Save(ctx, snap); err != nil {
		log.Error("failed to save board", zap.String("user_id", snap.UserID), zap.Error(err))
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferBoard(ctx, snap); bufErr != nil {
				log.Error("failed to buffer board", zap.Error(bufErr))
			} else {
				log.Warn("board snapshot buffered", zap.String("user_id", snap.UserID))
			}
		}
		return domain.ErrPersistFailed.With(err)
	}
	if uc.buffer != nil {
		if err := uc.buffer.DiscardBoard(ctx, snap.UserID); err != nil {
			log.Warn("failed to discard buffered boards", zap.Error(err))
		}
	}
	return nil
}

func (uc *UseCase) list(kind domain.TaskType) *[]domain.Task {
	if kind == domain.TaskLong {
		return &uc.long
	}
	return &uc.short
}

func (uc *UseCase) snapshotLocked() *domain.Board {
	return (&domain.Board{
		UserID:     uc.userID,
		ShortTasks: uc.short,
		LongTasks:  uc.long,
		Points:     uc.points,
	}).Clone()
}

func indexOf(tasks []domain.Task, id int64) int {
	return slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == id })
}

func has(set map[int64]struct{}, id int64) bool {
	_, ok := set[id]
	return ok
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
