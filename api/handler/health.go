package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/api/transport"
	"github.com/fastygo/taskpoints/internal/infrastructure/monitor"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
)

// StatusSource reports probe results.
type StatusSource interface {
	GetStatus() monitor.Status
}

// DegradedReporter tells whether conversation history runs on the fallback store.
type DegradedReporter interface {
	Degraded() bool
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
	history DegradedReporter
}

func NewHealthHandler(mon StatusSource, history DegradedReporter, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		history:     history,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"last_check": status.LastCheck,
		"services":   status.Components,
		"buffer": map[string]interface{}{
			"size": status.BufferSize,
		},
		"history_degraded": h.history.Degraded(),
	}

	if status.Online {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
