package express

import (
	"net/http"
	"strings"
)

// Route describes a method-and-path registration on a Router.
type Route struct {
	Method string
	Path   string
}

// routeEntry remembers which router a route was registered on, so the
// reported path follows that router's current mount prefix.
type routeEntry struct {
	owner  *Router
	method string
	path   string
}

// Router is an ordered list of middleware plus a mount prefix.
// Middleware run in the order they are added. Registration must finish
// before the router starts serving; the router is not safe for concurrent
// modification.
type Router struct {
	middlewares []Middleware
	prefix      string
	routes      []routeEntry
}

// NewRouter returns a new, empty Router.
func NewRouter() *Router {
	return &Router{}
}

// Prefix returns the router's mount prefix.
func (rt *Router) Prefix() string {
	return rt.prefix
}

// Middlewares returns a copy of the router's middleware list.
func (rt *Router) Middlewares() []Middleware {
	return append([]Middleware(nil), rt.middlewares...)
}

// Use appends middleware to the router's chain.
// Returns the Router instance for method chaining.
func (rt *Router) Use(mw ...Middleware) *Router {
	for _, fn := range mw {
		if fn == nil {
			panic("express: nil middleware passed to Use")
		}
	}
	rt.middlewares = append(rt.middlewares, mw...)
	return rt
}

// UseRouter appends the middleware currently registered on child. The copy
// is taken now: middleware added to child afterwards is not seen by rt
// unless child is added again.
func (rt *Router) UseRouter(child *Router) *Router {
	if child == nil {
		panic("express: nil router passed to UseRouter")
	}
	rt.middlewares = append(rt.middlewares, child.middlewares...)
	rt.routes = append(rt.routes, child.routes...)
	return rt
}

// Mount sets child's mount prefix to prefix and then adds child with
// UseRouter. Routes registered on child match against prefix + path.
func (rt *Router) Mount(prefix string, child *Router) *Router {
	if child == nil {
		panic("express: nil router passed to Mount")
	}
	child.prefix = prefix
	return rt.UseRouter(child)
}

// Route creates a child router, lets fn register on it and mounts it at
// prefix. Prefixes nest: a Route inside another Route combines them.
// Returns the parent Router instance for method chaining.
func (rt *Router) Route(prefix string, fn func(*Router)) *Router {
	if fn == nil {
		panic("express: nil function passed to Route")
	}
	child := &Router{prefix: rt.prefix + prefix}
	fn(child)
	return rt.UseRouter(child)
}

// Method registers mw for requests with the given method whose target starts
// with the router's prefix followed by path. The prefix is read when a
// request arrives, so a later Mount of this router changes what matches.
//
// Matching is a plain string-prefix test over the raw target, query string
// included: "/users" also matches "/users/1", "/usersabc" and "/users?x=1".
func (rt *Router) Method(method, path string, mw Middleware) *Router {
	if mw == nil {
		panic("express: nil middleware passed to Method")
	}
	rt.routes = append(rt.routes, routeEntry{owner: rt, method: method, path: path})
	return rt.Use(func(req *Request, res *Response, next Next) {
		if req.Method() != method || !strings.HasPrefix(req.Target(), rt.prefix+path) {
			next()
			return
		}
		mw(req, res, next)
	})
}

// Get registers mw for GET requests under path.
func (rt *Router) Get(path string, mw Middleware) *Router {
	return rt.Method(http.MethodGet, path, mw)
}

// Post registers mw for POST requests under path.
func (rt *Router) Post(path string, mw Middleware) *Router {
	return rt.Method(http.MethodPost, path, mw)
}

// Put registers mw for PUT requests under path.
func (rt *Router) Put(path string, mw Middleware) *Router {
	return rt.Method(http.MethodPut, path, mw)
}

// Delete registers mw for DELETE requests under path.
func (rt *Router) Delete(path string, mw Middleware) *Router {
	return rt.Method(http.MethodDelete, path, mw)
}

// Options registers mw for OPTIONS requests under path.
func (rt *Router) Options(path string, mw Middleware) *Router {
	return rt.Method(http.MethodOptions, path, mw)
}

// Routes lists the method registrations reachable from rt, in order, with
// each path shown under its owning router's current prefix.
func (rt *Router) Routes() []Route {
	out := make([]Route, 0, len(rt.routes))
	for _, e := range rt.routes {
		out = append(out, Route{Method: e.method, Path: e.owner.prefix + e.path})
	}
	return out
}

// Handle dispatches req and res through a snapshot of the router's
// middleware, calling fallback if none of them ends the chain.
func (rt *Router) Handle(req *Request, res *Response, fallback Next) {
	Handle(rt.middlewares, req, res, fallback)
}
