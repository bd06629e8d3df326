package httpx

import (
	"net/http"

	"github.com/jpl-au/express"
)

// Wrap returns middleware that serves the request with a net/http handler,
// such as promhttp.Handler(). It always ends the response and never calls
// next.
func Wrap(h http.Handler) express.Middleware {
	if h == nil {
		panic("httpx: nil handler passed to Wrap")
	}
	return func(req *express.Request, res *express.Response, next express.Next) {
		r, err := http.NewRequestWithContext(req.Context(), req.Method(), req.Target(), http.NoBody)
		if err != nil {
			res.SetStatus(http.StatusBadRequest)
			_ = res.Send(http.StatusText(http.StatusBadRequest))
			return
		}
		r.Header = req.Header().Clone()
		r.RequestURI = req.Target()

		b := &responseBridge{res: res, header: make(http.Header)}
		h.ServeHTTP(b, r)
		if !b.wroteHeader {
			b.WriteHeader(http.StatusOK)
		}
		_ = res.End()
	}
}

// responseBridge exposes an express.Response as an http.ResponseWriter.
type responseBridge struct {
	res         *express.Response
	header      http.Header
	wroteHeader bool
}

var (
	_ http.ResponseWriter = (*responseBridge)(nil)
	_ http.Flusher        = (*responseBridge)(nil)
)

func (b *responseBridge) Header() http.Header {
	return b.header
}

func (b *responseBridge) WriteHeader(status int) {
	if b.wroteHeader || b.res.HeadersSent() {
		return
	}
	b.wroteHeader = true
	b.res.SetStatus(status)
	for k, vals := range b.header {
		b.res.DelHeader(k)
		for _, v := range vals {
			b.res.AddHeader(k, v)
		}
	}
}

func (b *responseBridge) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	return b.res.Write(p)
}

// Flush is a no-op: every Write is handed to the sink immediately.
func (b *responseBridge) Flush() {}
