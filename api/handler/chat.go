package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/api/transport"
	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
	"github.com/fastygo/taskpoints/pkg/logger"
	"github.com/fastygo/taskpoints/usecase"
	"github.com/fastygo/taskpoints/usecase/assistant"
	historyUC "github.com/fastygo/taskpoints/usecase/history"
)

// Assistant sends one chat turn to the model.
type Assistant interface {
	Chat(ctx context.Context, req assistant.Request) *assistant.Reply
	Personas() *assistant.Personas
}

type ChatHandler struct {
	baseHandler
	assistant  Assistant
	history    *historyUC.Store
	dispatcher *usecase.Dispatcher
}

// NewChatHandler uses adapter for model calls; it should allow for every
// retry of the assistant client.
func NewChatHandler(ai Assistant, history *historyUC.Store, dispatcher *usecase.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		baseHandler: newBaseHandler(adapter, logger),
		assistant:   ai,
		history:     history,
		dispatcher:  dispatcher,
	}
}

type chatResponse struct {
	Reply    *assistant.Reply     `json:"reply"`
	Messages []domain.ChatMessage `json:"messages"`
}

// @Summary Send a message to the assistant
// @Description The reply may carry an operation; it only runs once the
// @Description client posts it to /api/v1/chat/operations.
// @Tags chat
// @Router /api/v1/chat [post]
func (h *ChatHandler) Send(ctx *fasthttp.RequestCtx) {
	var req transport.ChatRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	if req.Message == "" {
		h.respondInvalid(ctx, "message is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	userID := httpcontext.UserID(ctx)
	messages, err := h.history.Load(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	timeSensitive := assistant.IsTimeSensitive(req.Message)
	if req.TimeSensitive != nil {
		timeSensitive = *req.TimeSensitive
	}
	reply := h.assistant.Chat(stdCtx, assistant.Request{
		History:       messages,
		Message:       req.Message,
		TimeSensitive: timeSensitive,
		PersonaID:     h.history.Persona(stdCtx),
	})

	if !reply.IsError {
		messages = append(messages,
			domain.ChatMessage{Role: domain.RoleUser, Content: req.Message},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: reply.Content},
		)
		if err := h.history.Save(stdCtx, messages, userID); err != nil {
			logger.FromContext(stdCtx, h.logger).Warn("failed to save chat history", zap.Error(err))
		}
	}
	h.respondSuccess(ctx, http.StatusOK, chatResponse{Reply: reply, Messages: domain.CapMessages(messages)})
}

// @Summary Run an operation proposed by the assistant
// @Tags chat
// @Router /api/v1/chat/operations [post]
func (h *ChatHandler) ExecuteOperation(ctx *fasthttp.RequestCtx) {
	var op domain.Operation
	if !h.decodeBody(ctx, &op) {
		return
	}
	if op.Action() == "" {
		h.respondInvalid(ctx, "action is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatcher.Dispatch(stdCtx, op)
	if err != nil {
		h.respondError(ctx, err, result)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Messages of the active session
// @Tags chat
// @Router /api/v1/chat/history [get]
func (h *ChatHandler) History(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	messages, err := h.history.Load(stdCtx, httpcontext.UserID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, messages)
}

// @Summary List stored sessions, newest first
// @Tags chat
// @Router /api/v1/chat/sessions [get]
func (h *ChatHandler) Sessions(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondSuccess(ctx, http.StatusOK, h.history.Sessions(stdCtx))
}

// @Summary Start a new session
// @Tags chat
// @Router /api/v1/chat/sessions [post]
func (h *ChatHandler) NewSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := h.history.NewSession(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]string{"session_id": id})
}

// @Summary Switch to a stored session
// @Tags chat
// @Router /api/v1/chat/sessions/{id} [put]
func (h *ChatHandler) SwitchSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	messages, err := h.history.Switch(stdCtx, pathString(ctx, "id"), httpcontext.UserID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, messages)
}

// @Summary Delete a stored session
// @Tags chat
// @Router /api/v1/chat/sessions/{id} [delete]
func (h *ChatHandler) DeleteSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.history.DeleteSession(stdCtx, pathString(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Selected persona and the available ones
// @Tags chat
// @Router /api/v1/chat/persona [get]
func (h *ChatHandler) GetPersona(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"selected": h.history.Persona(stdCtx),
		"personas": h.assistant.Personas().List(),
	})
}

// @Summary Select a persona
// @Tags chat
// @Router /api/v1/chat/persona [put]
func (h *ChatHandler) SetPersona(ctx *fasthttp.RequestCtx) {
	var req transport.PersonaRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	persona, ok := h.assistant.Personas().Get(req.PersonaID)
	if !ok {
		h.respondError(ctx, domain.ErrUnknownPersona)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.history.SelectPersona(stdCtx, persona.ID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, persona)
}
