package express

import "sync"

// Middleware handles a request. It either ends the response or calls next to
// hand the request to the following middleware. It may call next later, from
// another goroutine, once some asynchronous work completes.
type Middleware func(req *Request, res *Response, next Next)

// Next resumes the chain at the following middleware.
type Next func()

// dispatch is the per-request cursor over a snapshot of a middleware stack.
type dispatch struct {
	mu       sync.Mutex
	stack    []Middleware
	req      *Request
	res      *Response
	fallback Next
}

// Handle runs stack against req and res in order. Each middleware receives a
// continuation that advances the same cursor; when the stack is exhausted
// fallback runs exactly once and later calls to the continuation do nothing.
//
// stack is copied, so changes to the caller's slice do not affect a dispatch
// in flight. Handle does not stop a middleware from running after the
// response has ended; termination is up to the middleware.
func Handle(stack []Middleware, req *Request, res *Response, fallback Next) {
	d := &dispatch{
		stack:    append([]Middleware(nil), stack...),
		req:      req,
		res:      res,
		fallback: fallback,
	}
	d.step()
}

func (d *dispatch) step() {
	d.mu.Lock()
	if len(d.stack) > 0 {
		mw := d.stack[0]
		d.stack = d.stack[1:]
		d.mu.Unlock()
		mw(d.req, d.res, d.step)
		return
	}
	fallback := d.fallback
	d.fallback = nil
	d.mu.Unlock()
	if fallback != nil {
		fallback()
	}
}
