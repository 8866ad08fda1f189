package board

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/repository/memory"
	"github.com/fastygo/taskpoints/usecase"
)

// flakyRepo wraps the in-memory store and fails on demand.
type flakyRepo struct {
	*memory.BoardStore
	failSave   bool
	failDelete bool
	saves      int
}

func (r *flakyRepo) Save(ctx context.Context, b *domain.Board) error {
	r.saves++
	if r.failSave {
		return errors.New("disk full")
	}
	return r.BoardStore.Save(ctx, b)
}

func (r *flakyRepo) DeleteTask(ctx context.Context, kind domain.TaskType, id int64) error {
	if r.failDelete {
		return errors.New("connection reset")
	}
	return r.BoardStore.DeleteTask(ctx, kind, id)
}

type recordingBuffer struct {
	mu        sync.Mutex
	buffered  []*domain.Board
	discarded []string
}

func (b *recordingBuffer) BufferBoard(_ context.Context, board *domain.Board) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffered = append(b.buffered, board)
	return nil
}

func (b *recordingBuffer) DiscardBoard(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.discarded = append(b.discarded, userID)
	return nil
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newActive(t *testing.T, repo *flakyRepo, buf *recordingBuffer) *UseCase {
	t.Helper()
	var buffer usecase.SnapshotBuffer
	if buf != nil {
		buffer = buf
	}
	uc := New(repo, buffer, nil, WithClock(func() time.Time { return fixedNow }))
	if err := uc.Activate(context.Background(), "user_a"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	return uc
}

func TestAddTaskDefaultsAndUniqueIDs(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()

	first, err := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "Read"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	second, err := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "Write", Point: 5})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if first.ID != fixedNow.UnixMilli() {
		t.Errorf("first id = %d, want %d", first.ID, fixedNow.UnixMilli())
	}
	if second.ID == first.ID {
		t.Error("ids must be unique within a list")
	}
	if first.Start != "00:00" || first.End != "23:59" || first.Duration != "daily" || first.Tip != "none" {
		t.Errorf("defaults not applied: %+v", first)
	}
	if first.Period != domain.PeriodNone || first.Point != 0 || first.Completed {
		t.Errorf("unexpected task state: %+v", first)
	}
	if first.UserID != "user_a" || first.Type != domain.TaskShort {
		t.Errorf("owner/type = %s/%s", first.UserID, first.Type)
	}

	stored, _ := repo.Load(ctx, "user_a")
	if len(stored.ShortTasks) != 2 {
		t.Fatalf("stored short tasks = %d, want 2", len(stored.ShortTasks))
	}
}

func TestAddTaskRequiresSession(t *testing.T) {
	uc := New(memory.NewBoardStore(), nil, nil)
	_, err := uc.AddTask(context.Background(), domain.TaskShort, domain.TaskDraft{Name: "x"})
	if !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestAddTaskRejectsBadInput(t *testing.T) {
	uc := newActive(t, &flakyRepo{BoardStore: memory.NewBoardStore()}, nil)
	ctx := context.Background()
	if _, err := uc.AddTask(ctx, "medium", domain.TaskDraft{}); !errors.Is(err, domain.ErrInvalidTaskType) {
		t.Errorf("type err = %v", err)
	}
	if _, err := uc.AddTask(ctx, domain.TaskLong, domain.TaskDraft{Period: "hourly"}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("period err = %v", err)
	}
}

func TestAddTaskPersistFailureKeepsTaskAndBuffers(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore(), failSave: true}
	buf := &recordingBuffer{}
	uc := newActive(t, repo, buf)

	task, err := uc.AddTask(context.Background(), domain.TaskLong, domain.TaskDraft{Name: "Marathon"})
	if !errors.Is(err, domain.ErrPersistFailed) {
		t.Fatalf("err = %v, want ErrPersistFailed", err)
	}
	if task == nil {
		t.Fatal("task should still be returned")
	}
	snap, _ := uc.Snapshot()
	if len(snap.LongTasks) != 1 {
		t.Errorf("in-memory long tasks = %d, want 1", len(snap.LongTasks))
	}
	if len(buf.buffered) != 1 || len(buf.buffered[0].LongTasks) != 1 {
		t.Errorf("buffered snapshots = %+v", buf.buffered)
	}
}

func TestSuccessfulSaveDiscardsBufferedSnapshots(t *testing.T) {
	buf := &recordingBuffer{}
	uc := newActive(t, &flakyRepo{BoardStore: memory.NewBoardStore()}, buf)
	if _, err := uc.Credit(context.Background(), 10, "bonus\n"); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if len(buf.discarded) != 1 || buf.discarded[0] != "user_a" {
		t.Errorf("discarded = %v", buf.discarded)
	}
}

func TestDeleteTaskRollsBackOnFailure(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a", "b", "c"} {
		task, err := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: name})
		if err != nil {
			t.Fatalf("AddTask: %v", err)
		}
		ids = append(ids, task.ID)
	}

	repo.failDelete = true
	err := uc.DeleteTask(ctx, domain.TaskShort, ids[1])
	if !errors.Is(err, domain.ErrPersistFailed) {
		t.Fatalf("err = %v, want ErrPersistFailed", err)
	}

	snap, _ := uc.Snapshot()
	if len(snap.ShortTasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(snap.ShortTasks))
	}
	if snap.ShortTasks[1].ID != ids[1] || snap.ShortTasks[1].Name != "b" {
		t.Errorf("task not restored at its index: %+v", snap.ShortTasks)
	}
}

func TestDeleteTask(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()

	task, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "gone"})
	if err := uc.DeleteTask(ctx, domain.TaskShort, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := uc.DeleteTask(ctx, domain.TaskShort, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	stored, _ := repo.Load(ctx, "user_a")
	if len(stored.ShortTasks) != 0 {
		t.Errorf("stored tasks = %d, want 0", len(stored.ShortTasks))
	}
}

func TestToggleTaskDoesNotTouchPoints(t *testing.T) {
	uc := newActive(t, &flakyRepo{BoardStore: memory.NewBoardStore()}, nil)
	ctx := context.Background()

	task, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "run", Point: 7})
	toggled, err := uc.ToggleTask(ctx, domain.TaskShort, task.ID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if !toggled.Completed {
		t.Error("task should be completed")
	}
	points, _ := uc.Points()
	if points.Total != 0 {
		t.Errorf("points = %d, want 0", points.Total)
	}
	if _, err := uc.ToggleTask(ctx, domain.TaskShort, 1); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("unknown toggle err = %v", err)
	}
}

func TestUpdateTaskOrder(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()

	a, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "a"})
	b, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "b"})
	c, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "c"})

	got, err := uc.UpdateTaskOrder(ctx, domain.TaskShort, []domain.Task{*c, *a})
	if err != nil {
		t.Fatalf("UpdateTaskOrder: %v", err)
	}
	want := []int64{c.ID, a.ID, b.ID}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	stored, _ := repo.Load(ctx, "user_a")
	for i, id := range want {
		if stored.ShortTasks[i].ID != id {
			t.Fatalf("stored order differs at %d", i)
		}
	}

	foreign := *b
	foreign.UserID = "user_b"
	if _, err := uc.UpdateTaskOrder(ctx, domain.TaskShort, []domain.Task{foreign}); !errors.Is(err, domain.ErrTaskOwnership) {
		t.Errorf("foreign err = %v", err)
	}
	if _, err := uc.UpdateTaskOrder(ctx, domain.TaskShort, []domain.Task{*a, *a}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestUpdateTaskOrderRejectsOtherUsersTasks(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()

	owned, err := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "mine"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := uc.Activate(ctx, "user_b"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	_, err = uc.UpdateTaskOrder(ctx, domain.TaskShort, []domain.Task{{ID: owned.ID, Name: "hijacked"}})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}

	if err := uc.Activate(ctx, "user_a"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	snap, _ := uc.Snapshot()
	if len(snap.ShortTasks) != 1 {
		t.Fatalf("user_a tasks = %d, want 1", len(snap.ShortTasks))
	}
	if got := snap.ShortTasks[0]; got.ID != owned.ID || got.Name != "mine" || got.UserID != "user_a" {
		t.Errorf("task = %+v", got)
	}
}

func TestUpdateTaskOrderUsesStoredFields(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()

	a, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "a", Point: 3})
	b, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "b", Point: 4})

	edited := *b
	edited.Name = "renamed"
	edited.Point = 999
	edited.Completed = true
	got, err := uc.UpdateTaskOrder(ctx, domain.TaskShort, []domain.Task{edited, {ID: a.ID}})
	if err != nil {
		t.Fatalf("UpdateTaskOrder: %v", err)
	}
	if got[0].ID != b.ID || got[0].Name != "b" || got[0].Point != 4 || got[0].Completed {
		t.Errorf("first = %+v, want stored task b", got[0])
	}
	if got[1].ID != a.ID || got[1].Name != "a" || got[1].Point != 3 {
		t.Errorf("second = %+v, want stored task a", got[1])
	}

	stored, _ := repo.Load(ctx, "user_a")
	if stored.ShortTasks[0].Name != "b" || stored.ShortTasks[0].Point != 4 {
		t.Errorf("stored = %+v", stored.ShortTasks[0])
	}
}

func TestDeleteTaskReplacesBufferedSnapshot(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	buf := &recordingBuffer{}
	uc := newActive(t, repo, buf)
	ctx := context.Background()

	task, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "gone"})
	repo.failSave = true
	if _, err := uc.ToggleTask(ctx, domain.TaskShort, task.ID); !errors.Is(err, domain.ErrPersistFailed) {
		t.Fatalf("toggle err = %v", err)
	}
	if len(buf.buffered) != 1 {
		t.Fatalf("buffered = %d, want 1", len(buf.buffered))
	}

	// Saves keep failing: the buffered snapshot must no longer carry the task.
	if err := uc.DeleteTask(ctx, domain.TaskShort, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if len(buf.buffered) != 2 {
		t.Fatalf("buffered = %d, want 2", len(buf.buffered))
	}
	if last := buf.buffered[1]; len(last.ShortTasks) != 0 {
		t.Errorf("latest snapshot tasks = %+v", last.ShortTasks)
	}

	// Saves recover: the buffer is cleared for the user.
	repo.failSave = false
	other, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "other"})
	discards := len(buf.discarded)
	if err := uc.DeleteTask(ctx, domain.TaskShort, other.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if len(buf.discarded) != discards+1 || buf.discarded[discards] != "user_a" {
		t.Errorf("discarded = %v", buf.discarded)
	}
}

func TestSpend(t *testing.T) {
	uc := newActive(t, &flakyRepo{BoardStore: memory.NewBoardStore()}, nil)
	ctx := context.Background()

	if _, err := uc.Credit(ctx, 40, "start\n"); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if _, err := uc.Spend(ctx, 50, "too much\n"); !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
	points, _ := uc.Points()
	if points.Total != 40 || points.Ledger != "start\n" {
		t.Errorf("failed spend changed state: %+v", points)
	}

	points, err := uc.Spend(ctx, 40, "all of it\n")
	if err != nil {
		t.Fatalf("Spend: %v", err)
	}
	if points.Total != 0 || !strings.HasSuffix(points.Ledger, "all of it\n") {
		t.Errorf("points = %+v", points)
	}
}

func TestResetRecurring(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()

	done, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "stretch", Point: 3, Period: domain.PeriodDaily})
	missed, _ := uc.AddTask(ctx, domain.TaskLong, domain.TaskDraft{Name: "journal", Point: 5, Period: domain.PeriodDaily})
	weekly, _ := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "review", Point: 9, Period: domain.PeriodWeekly})
	if _, err := uc.Credit(ctx, 20, ""); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if _, err := uc.ToggleTask(ctx, domain.TaskShort, done.ID); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if _, err := uc.ToggleTask(ctx, domain.TaskShort, weekly.ID); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}

	// Same day: nothing is due yet.
	if n, err := uc.ResetRecurring(ctx, fixedNow.Add(time.Hour)); err != nil || n != 0 {
		t.Fatalf("same-day reset = %d, %v", n, err)
	}

	// Three days later still counts as one reset.
	later := fixedNow.Add(72 * time.Hour)
	n, err := uc.ResetRecurring(ctx, later)
	if err != nil {
		t.Fatalf("ResetRecurring: %v", err)
	}
	if n != 2 {
		t.Errorf("reset = %d, want 2", n)
	}

	points, _ := uc.Points()
	if points.Total != 15 {
		t.Errorf("total = %d, want 15 (only the missed task is debited)", points.Total)
	}

	snap, _ := uc.Snapshot()
	for _, task := range append(snap.ShortTasks, snap.LongTasks...) {
		switch task.ID {
		case done.ID, missed.ID:
			if task.Completed || task.LastReset != domain.Day(later) {
				t.Errorf("daily task not reset: %+v", task)
			}
		case weekly.ID:
			if !task.Completed {
				t.Error("weekly tasks must not be reset")
			}
		}
	}

	if n, _ := uc.ResetRecurring(ctx, later); n != 0 {
		t.Errorf("second reset on the same day = %d, want 0", n)
	}
	points, _ = uc.Points()
	if points.Total != 15 {
		t.Errorf("debit applied twice: total = %d", points.Total)
	}

	stored, _ := repo.Load(ctx, "user_a")
	if stored.Points.Total != 15 {
		t.Errorf("stored total = %d, want 15", stored.Points.Total)
	}
}

func TestResetRecurringWithoutSession(t *testing.T) {
	uc := New(memory.NewBoardStore(), nil, nil)
	if n, err := uc.ResetRecurring(context.Background(), fixedNow); n != 0 || err != nil {
		t.Errorf("reset = %d, %v", n, err)
	}
}

func TestActivateIsolatesUsers(t *testing.T) {
	repo := &flakyRepo{BoardStore: memory.NewBoardStore()}
	uc := newActive(t, repo, nil)
	ctx := context.Background()
	if _, err := uc.AddTask(ctx, domain.TaskShort, domain.TaskDraft{Name: "mine"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := uc.Activate(ctx, "user_b"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	snap, _ := uc.Snapshot()
	if len(snap.ShortTasks) != 0 || snap.Points.UserID != "user_b" {
		t.Errorf("user_b sees %+v", snap)
	}

	uc.Deactivate()
	if _, err := uc.Snapshot(); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Errorf("snapshot after deactivate err = %v", err)
	}
}
