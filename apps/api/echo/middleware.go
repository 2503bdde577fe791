package echoapi

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/session"
)

const sessionCtxKey = "session"

// sessionMiddleware reads the caller's Session once per request.
// An unreadable session is logged and the request proceeds unauthenticated.
func sessionMiddleware(accessor session.Accessor, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := accessor.Session(ctx.Request())
			if err != nil {
				logger.Warn(fmt.Sprintf("reading session on %s: %v", ctx.Request().URL.Path, err))
			}
			ctx.Set(sessionCtxKey, sess)
			return next(ctx)
		}
	}
}

// contextSession returns the request's Session; the zero Session when none was read.
func contextSession(ctx echo.Context) session.Session {
	sess, _ := ctx.Get(sessionCtxKey).(session.Session)
	return sess
}
