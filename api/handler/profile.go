package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
	accountUC "github.com/fastygo/taskpoints/usecase/account"
)

type ProfileHandler struct {
	baseHandler
	accounts *accountUC.UseCase
}

func NewProfileHandler(accounts *accountUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		accounts:    accounts,
	}
}

// @Summary Get the current user
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	user := h.accounts.Current()
	if user == nil {
		h.respondError(ctx, domain.ErrNoActiveSession)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Save settings; an empty body applies the defaults
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile/settings [put]
func (h *ProfileHandler) SaveSettings(ctx *fasthttp.RequestCtx) {
	var settings *domain.Settings
	if !h.decodeBody(ctx, &settings) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.accounts.SaveSettings(stdCtx, settings)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}
