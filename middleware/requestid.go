package middleware

import (
	"github.com/google/uuid"

	"github.com/jpl-au/express"
)

// RequestIDHeader is the header read and echoed by RequestID.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the attached-value key holding the request ID string.
const RequestIDKey = "request_id"

// RequestID returns middleware that assigns each request an ID. An incoming
// X-Request-ID header is reused; otherwise a new UUID is generated. The ID is
// attached under RequestIDKey and echoed in the response header.
func RequestID() express.Middleware {
	return func(req *express.Request, res *express.Response, next express.Next) {
		id := req.Header().Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		req.SetValue(RequestIDKey, id)
		res.SetHeader(RequestIDHeader, id)
		next()
	}
}

// RequestIDFrom returns the ID attached by RequestID, or "".
func RequestIDFrom(req *express.Request) string {
	id, _ := req.Value(RequestIDKey).(string)
	return id
}
