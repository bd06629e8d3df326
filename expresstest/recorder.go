// Package expresstest provides utilities for testing express middleware.
package expresstest

import (
	"bytes"
	"context"
	"net/http"
	"sync"

	"github.com/jpl-au/express"
)

// Recorder is an express.Sink that records what a Response writes.
// Set the Fail fields to make the matching call return an error.
type Recorder struct {
	mu sync.Mutex

	Code      int
	HeaderMap http.Header
	Body      bytes.Buffer

	HeadWrites int
	BodyWrites int
	Ends       int

	FailHead error
	FailBody error
	FailEnd  error
}

var _ express.Sink = (*Recorder)(nil)

// NewRecorder returns an initialized Recorder.
func NewRecorder() *Recorder {
	return &Recorder{HeaderMap: make(http.Header)}
}

// WriteHead implements express.Sink.
func (r *Recorder) WriteHead(status int, header http.Header) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HeadWrites++
	if r.FailHead != nil {
		return r.FailHead
	}
	r.Code = status
	for k, v := range header {
		r.HeaderMap[k] = append([]string(nil), v...)
	}
	return nil
}

// WriteBody implements express.Sink.
func (r *Recorder) WriteBody(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BodyWrites++
	if r.FailBody != nil {
		return r.FailBody
	}
	r.Body.Write(p)
	return nil
}

// End implements express.Sink.
func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ends++
	return r.FailEnd
}

// String returns the recorded body.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

// NewRequest returns a Request for method and target with no headers.
func NewRequest(method, target string) *express.Request {
	return express.NewRequest(context.Background(), method, target, nil)
}

// Serve runs one request through h with a fresh Recorder and returns both
// the Recorder and the Response.
func Serve(h interface {
	ServeRequest(*express.Request, *express.Response)
}, req *express.Request) (*Recorder, *express.Response) {
	rec := NewRecorder()
	res := express.NewResponse(rec)
	h.ServeRequest(req, res)
	return rec, res
}
