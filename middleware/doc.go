// Package middleware provides common express middleware: request IDs,
// access logging, panic recovery, Prometheus metrics, per-client rate
// limiting and JWT bearer authentication.
//
// Values for later middleware are attached to the request with
// express.Request.SetValue under the keys exported here.
package middleware
