package handler

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/api/transport"
	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
	catalogUC "github.com/fastygo/taskpoints/usecase/catalog"
)

type StoreHandler struct {
	baseHandler
	catalog *catalogUC.UseCase
}

func NewStoreHandler(catalog *catalogUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *StoreHandler {
	return &StoreHandler{
		baseHandler: newBaseHandler(adapter, logger),
		catalog:     catalog,
	}
}

// @Summary List store items
// @Tags store
// @Router /api/v1/store/items [get]
func (h *StoreHandler) ListItems(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.catalog.Items())
}

// @Summary Add a store item
// @Tags store
// @Router /api/v1/store/items [post]
func (h *StoreHandler) AddItem(ctx *fasthttp.RequestCtx) {
	var req transport.StoreItemRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	item, err := h.catalog.Add(domain.StoreItem{Name: req.Name, Price: req.Price, Description: req.Description})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, item)
}

// @Summary Update a store item
// @Tags store
// @Router /api/v1/store/items/{id} [put]
func (h *StoreHandler) UpdateItem(ctx *fasthttp.RequestCtx) {
	id, ok := h.itemID(ctx)
	if !ok {
		return
	}
	var req transport.StoreItemRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	item := domain.StoreItem{ID: id, Name: req.Name, Price: req.Price, Description: req.Description}
	if err := h.catalog.Update(item); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Remove a store item
// @Tags store
// @Router /api/v1/store/items/{id} [delete]
func (h *StoreHandler) RemoveItem(ctx *fasthttp.RequestCtx) {
	id, ok := h.itemID(ctx)
	if !ok {
		return
	}
	if err := h.catalog.Remove(id); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Buy an item with points
// @Tags store
// @Router /api/v1/store/items/{id}/purchase [post]
func (h *StoreHandler) Purchase(ctx *fasthttp.RequestCtx) {
	id, ok := h.itemID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	receipt, err := h.catalog.Purchase(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err, receipt)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, receipt)
}

func (h *StoreHandler) itemID(ctx *fasthttp.RequestCtx) (int, bool) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		h.respondError(ctx, domain.ErrInvalidPayload.With(errors.New("item id must be numeric")))
		return 0, false
	}
	return int(id), true
}
