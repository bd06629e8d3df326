package httpx

import (
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/jpl-au/express"
)

// FastHTTP adapts h into a fasthttp.RequestHandler.
//
// fasthttp buffers the response body and sends it once the handler returns,
// so chunks written with Response.Write are not streamed.
//
// The request context is the fasthttp.RequestCtx, whose Done channel closes
// only when the server shuts down. A client disconnect is not observed: a
// middleware that never ends the response holds its handler goroutine until
// shutdown. Shutdown aborts every response still in flight, including ones
// waiting on asynchronous work.
func FastHTTP(h Handler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		header := make(http.Header)
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			header.Add(string(k), string(v))
		})

		req := express.NewRequest(ctx, string(ctx.Method()), string(ctx.RequestURI()), header,
			express.WithRemoteAddr(ctx.RemoteAddr().String()))
		res := h.NewResponse(&fastHTTPSink{ctx: ctx})
		serve(ctx, h, req, res)
	}
}

// fastHTTPSink writes a response into a fasthttp.RequestCtx.
type fastHTTPSink struct {
	ctx *fasthttp.RequestCtx
}

var _ express.Sink = (*fastHTTPSink)(nil)

func (s *fastHTTPSink) WriteHead(status int, header http.Header) error {
	s.ctx.SetStatusCode(status)
	for k, vals := range header {
		// fasthttp derives Content-Length from the buffered body.
		if k == "Content-Length" {
			continue
		}
		for i, v := range vals {
			if i == 0 {
				s.ctx.Response.Header.Set(k, v)
				continue
			}
			s.ctx.Response.Header.Add(k, v)
		}
	}
	return nil
}

func (s *fastHTTPSink) WriteBody(p []byte) error {
	_, err := s.ctx.Write(p)
	return err
}

func (s *fastHTTPSink) End() error {
	return nil
}
