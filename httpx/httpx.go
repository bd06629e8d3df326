// Package httpx connects an express application to an HTTP transport.
//
// The adapters turn a parsed request head into an [express.Request] and give
// the [express.Response] a [express.Sink] writing to the transport. Request
// bodies are not read. Each adapter blocks the transport's handler goroutine
// until the response ends or the transport context is cancelled.
package httpx

import (
	"context"
	"errors"

	"github.com/jpl-au/express"
)

// ErrAborted is recorded on a response whose transport context was
// cancelled before the response ended.
var ErrAborted = errors.New("httpx: request aborted before response ended")

// Handler serves requests. *express.App satisfies it.
type Handler interface {
	NewResponse(sink express.Sink) *express.Response
	ServeRequest(req *express.Request, res *express.Response)
}

// serve dispatches and waits for the response to end. If ctx is cancelled
// first the response is aborted so late writes from a stalled middleware
// never reach the transport. What cancels ctx depends on the transport; see
// NetHTTP and FastHTTP.
func serve(ctx context.Context, h Handler, req *express.Request, res *express.Response) {
	h.ServeRequest(req, res)
	select {
	case <-res.Done():
	case <-ctx.Done():
		res.Abort(errors.Join(ErrAborted, context.Cause(ctx)))
	}
}
