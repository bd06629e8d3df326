package express

import (
	"log/slog"
	"net/http"
)

// NotFoundBody is the body sent when no middleware handles a request.
const NotFoundBody = "No middleware handled the request!"

// App is the top-level router of an application. It adds the fallback that
// answers requests nobody handled, and the logger responses report through.
// Serve it with package server or one of the httpx adapters.
type App struct {
	*Router
	fallback Middleware
	logger   *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithFallback replaces the handler used when the chain is exhausted. The
// fallback must end the response.
func WithFallback(mw Middleware) Option {
	return func(a *App) {
		if mw == nil {
			panic("express: nil fallback passed to WithFallback")
		}
		a.fallback = mw
	}
}

// New returns a new App with an empty router.
func New(opts ...Option) *App {
	a := &App{
		Router:   NewRouter(),
		fallback: NotFound,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// NewResponse returns a Response on sink that reports through the App's
// logger.
func (a *App) NewResponse(sink Sink) *Response {
	return NewResponse(sink, WithResponseLogger(a.logger))
}

// ServeRequest dispatches req and res through the App's middleware. If no
// middleware ends the chain the fallback answers.
func (a *App) ServeRequest(req *Request, res *Response) {
	a.Handle(req, res, func() {
		a.fallback(req, res, func() {})
	})
}

// NotFound answers 404 with NotFoundBody. It is the default fallback.
func NotFound(req *Request, res *Response, next Next) {
	if res.HeadersSent() {
		_ = res.End()
		return
	}
	res.SetStatus(http.StatusNotFound)
	_ = res.Send(NotFoundBody)
}
