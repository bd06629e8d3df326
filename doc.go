// Package express provides an Express-style middleware chain for Go.
//
// A request is threaded through an ordered list of [Middleware]. Each
// middleware receives the [Request], the [Response] and a [Next]
// continuation. It either ends the response or calls next to hand the
// request on. When the list is exhausted a fallback answers, so every
// request gets exactly one response.
//
// # Basic Usage
//
// Create an app, add middleware, register routes and serve it with package
// server:
//
//	app := express.New()
//	app.Use(express.QueryString, express.CORS("*"))
//	app.Get("/hello", func(req *express.Request, res *express.Response, next express.Next) {
//		_ = res.Send("Hello, World!")
//	})
//	err := server.Listen(app, 8080)
//
// # Middleware
//
// Middleware run in the order they are registered. A middleware may call
// next synchronously or later, once asynchronous work completes:
//
//	app.Use(func(req *express.Request, res *express.Response, next express.Next) {
//		req.SetValue("started", time.Now())
//		next()
//	})
//
// Calling next after the response has ended is allowed; later writes are
// ignored.
//
// # Routers and Mounting
//
// A [Router] can be added to another router. Its middleware is copied at
// that moment, so later additions to the child are not seen:
//
//	users := express.NewRouter()
//	users.Get("/", getUser) // matches GET /api/users/...
//	app.Mount("/api/users", users)
//
// Routes match with a plain string-prefix test over the raw request target.
// "/users" matches "/users/1" and also "/usersabc"; the query string takes
// part in the test.
//
// # Responses
//
// A [Response] moves from fresh to headers-sent to ended. Headers and status
// can change only while it is fresh; doing so later panics. [Response.Send],
// [Response.JSON] and [Response.End] are no-ops once the response has ended.
//
// # Transports
//
// The package does not parse HTTP. Package httpx adapts fasthttp and net/http
// requests into a [Request] and a [Sink]; package server runs the listener.
package express
