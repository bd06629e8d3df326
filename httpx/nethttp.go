package httpx

import (
	"errors"
	"net/http"

	"github.com/jpl-au/express"
)

// NetHTTP adapts h into a net/http handler. The request context is cancelled
// when the client disconnects, which aborts a response that has not ended.
func NetHTTP(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.RequestURI
		if target == "" {
			target = r.URL.RequestURI()
		}
		req := express.NewRequest(r.Context(), r.Method, target, r.Header.Clone(),
			express.WithRemoteAddr(r.RemoteAddr))
		res := h.NewResponse(&netHTTPSink{ResponseWriter: w})
		serve(r.Context(), h, req, res)
	})
}

// netHTTPSink writes a response to an http.ResponseWriter.
type netHTTPSink struct {
	http.ResponseWriter
}

var _ express.Sink = (*netHTTPSink)(nil)

func (s *netHTTPSink) WriteHead(status int, header http.Header) error {
	dst := s.ResponseWriter.Header()
	for k, vals := range header {
		dst[k] = append([]string(nil), vals...)
	}
	s.ResponseWriter.WriteHeader(status)
	return nil
}

func (s *netHTTPSink) WriteBody(p []byte) error {
	_, err := s.ResponseWriter.Write(p)
	return err
}

// End flushes buffered data to the client. net/http finishes the message
// when the handler returns.
func (s *netHTTPSink) End() error {
	err := http.NewResponseController(s.ResponseWriter).Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}
