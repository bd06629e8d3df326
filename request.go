package express

import (
	"context"
	"net/http"
	"strings"
)

// Request is the view of one incoming request head. Method, target and
// headers are fixed at construction; only the attached values may change
// while the request moves through the chain.
type Request struct {
	ctx    context.Context
	method string
	target string
	header http.Header
	remote string
	values map[string]any
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithRemoteAddr records the network address of the client.
func WithRemoteAddr(addr string) RequestOption {
	return func(r *Request) { r.remote = addr }
}

// NewRequest returns a Request for the given request head. The target is the
// raw request URI (path plus optional query) exactly as received.
// A nil header is replaced by an empty one.
func NewRequest(ctx context.Context, method, target string, header http.Header, opts ...RequestOption) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	if header == nil {
		header = make(http.Header)
	}
	r := &Request{
		ctx:    ctx,
		method: method,
		target: target,
		header: header,
		values: make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Context returns the request's context. It is cancelled by the transport
// when the client goes away or the server shuts down.
func (r *Request) Context() context.Context {
	return r.ctx
}

// Method returns the request method, e.g. "GET".
func (r *Request) Method() string {
	return r.method
}

// Target returns the raw request target, path and query string included.
func (r *Request) Target() string {
	return r.target
}

// Path returns the target without its query component.
func (r *Request) Path() string {
	if i := strings.IndexByte(r.target, '?'); i >= 0 {
		return r.target[:i]
	}
	return r.target
}

// RawQuery returns the query component of the target without the leading '?'.
func (r *Request) RawQuery() string {
	if i := strings.IndexByte(r.target, '?'); i >= 0 {
		return r.target[i+1:]
	}
	return ""
}

// RemoteAddr returns the client's network address, if the transport
// provided one.
func (r *Request) RemoteAddr() string {
	return r.remote
}

// Header returns the request headers.
func (r *Request) Header() http.Header {
	return r.header
}

// Value returns the value attached under key, or nil.
func (r *Request) Value(key string) any {
	return r.values[key]
}

// SetValue attaches v under key for middleware further down the chain.
func (r *Request) SetValue(key string, v any) {
	r.values[key] = v
}

// Param returns the query parameter parsed by the QueryString middleware.
// Values sharing a name are comma-joined. It reports false when the
// parameter is absent or QueryString has not run.
func (r *Request) Param(name string) (string, bool) {
	params, ok := r.values[ParamsKey].(map[string]string)
	if !ok {
		return "", false
	}
	v, ok := params[name]
	return v, ok
}
