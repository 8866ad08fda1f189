package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/api/transport"
	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
	accountUC "github.com/fastygo/taskpoints/usecase/account"
)

// BoardSession switches the task board along with the logged-in user.
type BoardSession interface {
	Activate(ctx context.Context, userID string) error
	Deactivate()
}

type AuthHandler struct {
	baseHandler
	accounts *accountUC.UseCase
	board    BoardSession
}

func NewAuthHandler(accounts *accountUC.UseCase, board BoardSession, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		accounts:    accounts,
		board:       board,
	}
}

// @Summary First-visit check
// @Tags auth
// @Router /api/v1/welcome [get]
func (h *AuthHandler) Welcome(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	first, err := h.accounts.FirstVisit(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"first_visit": first,
		"logged_in":   h.accounts.LoggedIn(),
	})
}

// @Summary Register an account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.accounts.Register(stdCtx, req.Username, req.Nickname, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Log in
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.accounts.Login(stdCtx, req.Username, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.activate(ctx, stdCtx, user)
}

// @Summary Continue as guest
// @Tags auth
// @Router /api/v1/auth/guest [post]
func (h *AuthHandler) Guest(ctx *fasthttp.RequestCtx) {
	var req transport.GuestRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.accounts.UseTemporaryUser(stdCtx, req.Nickname)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.activate(ctx, stdCtx, user)
}

// @Summary Log out
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.board.Deactivate()
	if err := h.accounts.Logout(stdCtx); err != nil {
		h.respondError(ctx, domain.ErrPersistFailed.With(err))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

func (h *AuthHandler) activate(ctx *fasthttp.RequestCtx, stdCtx context.Context, user *domain.User) {
	if err := h.board.Activate(stdCtx, user.ID); err != nil {
		h.respondError(ctx, domain.ErrStorageUnavailable.With(err))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}
