package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/repository"
)

type taskKey struct {
	kind domain.TaskType
	id   int64
}

type storedTask struct {
	task     domain.Task
	position int
}

// BoardStore keeps tasks and balances in maps.
type BoardStore struct {
	mu     sync.RWMutex
	tasks  map[taskKey]storedTask
	points map[string]domain.Points
}

var _ repository.BoardRepository = (*BoardStore)(nil)

func NewBoardStore() *BoardStore {
	return &BoardStore{
		tasks:  make(map[taskKey]storedTask),
		points: make(map[string]domain.Points),
	}
}

func (s *BoardStore) Load(_ context.Context, userID string) (*domain.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []storedTask
	for _, st := range s.tasks {
		if st.task.UserID == userID {
			owned = append(owned, st)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].position != owned[j].position {
			return owned[i].position < owned[j].position
		}
		return owned[i].task.ID < owned[j].task.ID
	})

	board := &domain.Board{UserID: userID, Points: domain.Points{UserID: userID}}
	for _, st := range owned {
		if st.task.Type == domain.TaskLong {
			board.LongTasks = append(board.LongTasks, st.task)
		} else {
			board.ShortTasks = append(board.ShortTasks, st.task)
		}
	}
	if p, ok := s.points[userID]; ok {
		board.Points = p
	}
	return board, nil
}

func (s *BoardStore) Save(_ context.Context, board *domain.Board) error {
	if board == nil || board.UserID == "" {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Task keys are global; a row owned by someone else is never taken over.
	for _, kind := range []domain.TaskType{domain.TaskShort, domain.TaskLong} {
		for _, t := range board.Tasks(kind) {
			if st, ok := s.tasks[taskKey{kind, t.ID}]; ok && st.task.UserID != board.UserID {
				return domain.ErrTaskOwnership.With(fmt.Errorf("%s task %d", kind, t.ID))
			}
		}
	}
	for _, kind := range []domain.TaskType{domain.TaskShort, domain.TaskLong} {
		for pos, t := range board.Tasks(kind) {
			t.Type = kind
			t.UserID = board.UserID
			s.tasks[taskKey{kind, t.ID}] = storedTask{task: t, position: pos}
		}
	}
	p := board.Points
	p.UserID = board.UserID
	s.points[board.UserID] = p
	return nil
}

func (s *BoardStore) DeleteTask(_ context.Context, kind domain.TaskType, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := taskKey{kind, id}
	if _, ok := s.tasks[k]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, k)
	return nil
}
