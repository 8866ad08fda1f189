package board

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/usecase"
)

// Assistant-facing actions.
const (
	ActionAddTask    = "add_task"
	ActionDeleteTask = "delete_task"
	ActionToggleTask = "toggle_task"
	ActionAddPoints  = "add_points"
	ActionTasks      = "tasks"
	ActionPoints     = "points"
)

type addTaskArgs struct {
	Type domain.TaskType `json:"type"`
	domain.TaskDraft
}

type addPointsArgs struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

type taskRefArgs struct {
	Type domain.TaskType `json:"type"`
	ID   flexibleID      `json:"id"`
}

// flexibleID accepts ids as JSON numbers or strings; models emit both.
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("task id %s: %w", b, err)
	}
	*f = flexibleID(id)
	return nil
}

// RegisterCommands exposes board operations to the dispatcher.
func (uc *UseCase) RegisterCommands(d *usecase.Dispatcher) {
	d.RegisterCommand(ActionAddTask, func(ctx context.Context, op domain.Operation) (interface{}, error) {
		var args addTaskArgs
		if err := op.Decode(&args); err != nil {
			return nil, domain.ErrInvalidPayload.With(err)
		}
		if args.Type == "" {
			args.Type = domain.TaskShort
		}
		return uc.AddTask(ctx, args.Type, args.TaskDraft)
	})
	d.RegisterCommand(ActionDeleteTask, func(ctx context.Context, op domain.Operation) (interface{}, error) {
		args, err := decodeRef(op)
		if err != nil {
			return nil, err
		}
		return nil, uc.DeleteTask(ctx, args.Type, int64(args.ID))
	})
	d.RegisterCommand(ActionToggleTask, func(ctx context.Context, op domain.Operation) (interface{}, error) {
		args, err := decodeRef(op)
		if err != nil {
			return nil, err
		}
		return uc.ToggleTask(ctx, args.Type, int64(args.ID))
	})
	d.RegisterCommand(ActionAddPoints, func(ctx context.Context, op domain.Operation) (interface{}, error) {
		var args addPointsArgs
		if err := op.Decode(&args); err != nil {
			return nil, domain.ErrInvalidPayload.With(err)
		}
		return uc.Award(ctx, args.Amount, args.Reason)
	})
	d.RegisterQuery(ActionTasks, func(context.Context, domain.Operation) (interface{}, error) {
		return uc.Snapshot()
	})
	d.RegisterQuery(ActionPoints, func(context.Context, domain.Operation) (interface{}, error) {
		return uc.Points()
	})
}

func decodeRef(op domain.Operation) (taskRefArgs, error) {
	var args taskRefArgs
	if err := op.Decode(&args); err != nil {
		return args, domain.ErrInvalidPayload.With(err)
	}
	return args, nil
}
