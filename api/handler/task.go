package handler

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/api/transport"
	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
	boardUC "github.com/fastygo/taskpoints/usecase/board"
)

type TaskHandler struct {
	baseHandler
	board *boardUC.UseCase
}

func NewTaskHandler(board *boardUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		board:       board,
	}
}

// @Summary List both task lists and the balance
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	board, err := h.board.Snapshot()
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, board)
}

// @Summary Get the point balance
// @Tags tasks
// @Router /api/v1/points [get]
func (h *TaskHandler) GetPoints(ctx *fasthttp.RequestCtx) {
	points, err := h.board.Points()
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, points)
}

// @Summary Credit points with a ledger entry
// @Tags tasks
// @Accept json
// @Router /api/v1/points [post]
func (h *TaskHandler) AwardPoints(ctx *fasthttp.RequestCtx) {
	var req transport.PointsRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	points, err := h.board.Award(stdCtx, req.Amount, req.Reason)
	if err != nil {
		h.respondError(ctx, err, points)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, points)
}

// @Summary Create a task
// @Tags tasks
// @Accept json
// @Router /api/v1/tasks/{type} [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	kind, ok := h.taskType(ctx)
	if !ok {
		return
	}
	var draft domain.TaskDraft
	if !h.decodeBody(ctx, &draft) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.board.AddTask(stdCtx, kind, draft)
	if err != nil {
		h.respondError(ctx, err, task)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, task)
}

// @Summary Replace the order of a task list
// @Tags tasks
// @Accept json
// @Router /api/v1/tasks/{type}/order [put]
func (h *TaskHandler) ReorderTasks(ctx *fasthttp.RequestCtx) {
	kind, ok := h.taskType(ctx)
	if !ok {
		return
	}
	var req transport.TaskOrderRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.board.UpdateTaskOrder(stdCtx, kind, req.Tasks)
	if err != nil {
		h.respondError(ctx, err, tasks)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Toggle completion; points follow the flag
// @Tags tasks
// @Router /api/v1/tasks/{type}/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	kind, id, ok := h.taskRef(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.board.ToggleTask(stdCtx, kind, id)
	if err != nil {
		h.respondError(ctx, err, task)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Delete a task
// @Tags tasks
// @Router /api/v1/tasks/{type}/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	kind, id, ok := h.taskRef(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.board.DeleteTask(stdCtx, kind, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

func (h *TaskHandler) taskType(ctx *fasthttp.RequestCtx) (domain.TaskType, bool) {
	kind, err := domain.ParseTaskType(pathString(ctx, "type"))
	if err != nil {
		h.respondError(ctx, err)
		return "", false
	}
	return kind, true
}

func (h *TaskHandler) taskRef(ctx *fasthttp.RequestCtx) (domain.TaskType, int64, bool) {
	kind, ok := h.taskType(ctx)
	if !ok {
		return "", 0, false
	}
	id, ok := pathInt64(ctx, "id")
	if !ok {
		h.respondError(ctx, domain.ErrInvalidPayload.With(errors.New("task id must be numeric")))
		return "", 0, false
	}
	return kind, id, true
}
