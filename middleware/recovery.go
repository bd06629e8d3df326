package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jpl-au/express"
)

// Recovery returns middleware that recovers panics raised while the rest of
// the chain runs synchronously. If nothing has been sent yet the client gets
// a 500; otherwise the response is ended as is.
func Recovery(logger *slog.Logger) express.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *express.Request, res *express.Response, next express.Next) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogAttrs(req.Context(), slog.LevelError, "panic recovered",
					slog.String("method", req.Method()),
					slog.String("target", req.Target()),
					slog.String("panic", fmt.Sprint(r)),
				)
				if res.HeadersSent() {
					_ = res.End()
					return
				}
				res.SetStatus(http.StatusInternalServerError)
				_ = res.Send(http.StatusText(http.StatusInternalServerError))
			}
		}()
		next()
	}
}
