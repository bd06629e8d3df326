package middleware

import (
	"log/slog"
	"time"

	"github.com/jpl-au/express"
)

// Logger returns middleware that emits one structured log entry per request
// once its response ends. Server errors and aborted responses are logged at
// error level, client errors at warn level.
func Logger(logger *slog.Logger) express.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *express.Request, res *express.Response, next express.Next) {
		start := time.Now()
		res.OnFinish(func(res *express.Response) {
			attrs := []slog.Attr{
				slog.String("method", req.Method()),
				slog.String("target", req.Target()),
				slog.Int("status", res.Status()),
				slog.Int("size", res.Size()),
				slog.Duration("duration", time.Since(start)),
			}
			if id := RequestIDFrom(req); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if addr := req.RemoteAddr(); addr != "" {
				attrs = append(attrs, slog.String("remote_addr", addr))
			}

			level := slog.LevelInfo
			switch {
			case res.Err() != nil:
				attrs = append(attrs, slog.String("error", res.Err().Error()))
				level = slog.LevelError
			case res.Status() >= 500:
				level = slog.LevelError
			case res.Status() >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(req.Context(), level, "request completed", attrs...)
		})
		next()
	}
}
