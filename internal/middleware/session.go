package middleware

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/api/transport"
	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/httpcontext"
)

// SessionSource exposes the logged-in user.
type SessionSource interface {
	Current() *domain.User
}

// RequireSession rejects requests while nobody is logged in and stores the
// current user id as a request user value.
func RequireSession(sessions SessionSource, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			user := sessions.Current()
			if user == nil {
				logger.Debug("rejected request without session", zap.ByteString("path", ctx.Path()))
				body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), domain.ErrNoActiveSession.Error(), nil))
				ctx.Response.Header.SetContentType("application/json")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBody(body)
				return
			}
			ctx.SetUserValue(httpcontext.UserValueUserID, user.ID)
			next(ctx)
		}
	}
}
