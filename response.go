package express

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
)

// ErrResponseEnded is returned by Write once the response has ended.
var ErrResponseEnded = errors.New("express: response already ended")

// Sink is the transport side of a Response. The Response calls WriteHead at
// most once, then WriteBody any number of times, then End at most once.
// Calls never arrive out of that order.
type Sink interface {
	WriteHead(status int, header http.Header) error
	WriteBody(p []byte) error
	End() error
}

type responseState uint8

const (
	stateFresh responseState = iota
	stateHeadersSent
	stateEnded
)

// Response is the write-once sink for one request. Headers may be changed
// until the head is flushed; the first body write flushes it. Once ended,
// every further Send, JSON or End is a no-op.
type Response struct {
	mu     sync.Mutex
	sink   Sink
	status int
	header http.Header
	state  responseState
	size   int
	err    error
	done   chan struct{}
	finish []func(*Response)

	logger  *slog.Logger
	onError func(*Response, error)
}

// ResponseOption configures a Response.
type ResponseOption func(*Response)

// WithResponseLogger sets the logger used to report write failures.
func WithResponseLogger(l *slog.Logger) ResponseOption {
	return func(r *Response) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithErrorHandler registers fn to be called with every error that ends the
// response early (encode failures, transport write failures).
func WithErrorHandler(fn func(*Response, error)) ResponseOption {
	return func(r *Response) { r.onError = fn }
}

// NewResponse returns a fresh Response writing to sink.
func NewResponse(sink Sink, opts ...ResponseOption) *Response {
	if sink == nil {
		panic("express: nil sink passed to NewResponse")
	}
	r := &Response{
		sink:   sink,
		status: http.StatusOK,
		header: make(http.Header),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns the status code that is, or will be, sent.
func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// SetStatus sets the status code. It panics once the head has been flushed.
func (r *Response) SetStatus(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateFresh {
		panic("express: SetStatus called after headers were sent")
	}
	r.status = code
}

// Header returns the first value of the response header key.
func (r *Response) Header(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Get(key)
}

// SetHeader sets the response header key to value. It panics once the head
// has been flushed.
func (r *Response) SetHeader(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateFresh {
		panic("express: SetHeader called after headers were sent")
	}
	r.header.Set(key, value)
}

// AddHeader adds value to the response header key. It panics once the head
// has been flushed.
func (r *Response) AddHeader(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateFresh {
		panic("express: AddHeader called after headers were sent")
	}
	r.header.Add(key, value)
}

// DelHeader removes the response header key. It panics once the head has
// been flushed.
func (r *Response) DelHeader(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateFresh {
		panic("express: DelHeader called after headers were sent")
	}
	r.header.Del(key)
}

// HeadersSent reports whether the status line and headers have been flushed.
func (r *Response) HeadersSent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != stateFresh
}

// Ended reports whether the response has ended.
func (r *Response) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateEnded
}

// Size returns the number of body bytes handed to the sink.
func (r *Response) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Err returns the error that ended the response, if any.
func (r *Response) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Done returns a channel closed when the response ends.
func (r *Response) Done() <-chan struct{} {
	return r.done
}

// OnFinish registers fn to run once after the response ends. If the response
// has already ended fn runs immediately.
func (r *Response) OnFinish(fn func(*Response)) {
	r.mu.Lock()
	if r.state == stateEnded {
		r.mu.Unlock()
		fn(r)
		return
	}
	r.finish = append(r.finish, fn)
	r.mu.Unlock()
}

// Write flushes the head if needed and writes p as a body chunk without
// ending the response.
func (r *Response) Write(p []byte) (int, error) {
	r.mu.Lock()
	if r.state == stateEnded {
		r.mu.Unlock()
		return 0, ErrResponseEnded
	}
	err := r.flushHeadLocked()
	if err == nil {
		err = r.writeLocked(p)
	}
	if err != nil {
		hooks, _ := r.endLocked(err, true)
		r.mu.Unlock()
		r.release(hooks, err)
		return 0, err
	}
	r.mu.Unlock()
	return len(p), nil
}

// Send writes body and ends the response.
func (r *Response) Send(body string) error {
	return r.SendBytes([]byte(body))
}

// SendBytes writes body and ends the response. It is a no-op once the
// response has ended.
func (r *Response) SendBytes(body []byte) error {
	return r.send(body, nil)
}

// JSON encodes v, sets Content-Type and Content-Length and sends it. When v
// cannot be encoded the response is ended with a 500 (if the head is still
// unsent), the encode error is recorded as Err and returned.
func (r *Response) JSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		err = fmt.Errorf("express: encode json: %w", err)
		r.mu.Lock()
		if r.state == stateEnded {
			r.mu.Unlock()
			return nil
		}
		if r.state == stateFresh {
			r.status = http.StatusInternalServerError
			r.header.Set("Content-Type", "text/plain; charset=utf-8")
			r.header.Del("Content-Length")
		}
		r.mu.Unlock()
		_ = r.send([]byte(http.StatusText(http.StatusInternalServerError)), err)
		return err
	}

	r.mu.Lock()
	if r.state == stateFresh {
		r.header.Set("Content-Type", "application/json")
		r.header.Set("Content-Length", strconv.Itoa(len(data)))
	}
	r.mu.Unlock()
	return r.SendBytes(data)
}

// send writes body and ends the response. A non-nil cause is recorded as the
// error that ended it and is what finish hooks observe through Err.
func (r *Response) send(body []byte, cause error) error {
	r.mu.Lock()
	if r.state == stateEnded {
		r.mu.Unlock()
		return nil
	}
	if r.state == stateFresh && r.header.Get("Content-Length") == "" {
		r.header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	err := r.flushHeadLocked()
	if err == nil && len(body) > 0 {
		err = r.writeLocked(body)
	}
	if cause != nil && err != nil {
		err = errors.Join(cause, err)
	} else if cause != nil {
		err = cause
	}
	hooks, err := r.endLocked(err, true)
	r.mu.Unlock()
	r.release(hooks, err)
	return err
}

// End flushes the head if needed and ends the response. It is a no-op once
// the response has ended.
func (r *Response) End() error {
	r.mu.Lock()
	if r.state == stateEnded {
		r.mu.Unlock()
		return nil
	}
	err := r.flushHeadLocked()
	hooks, err := r.endLocked(err, true)
	r.mu.Unlock()
	r.release(hooks, err)
	return err
}

// Abort ends the response without touching the sink. Transports call it when
// the connection is gone and nothing more can be written.
func (r *Response) Abort(cause error) {
	r.mu.Lock()
	if r.state == stateEnded {
		r.mu.Unlock()
		return
	}
	hooks, _ := r.endLocked(cause, false)
	r.mu.Unlock()
	r.release(hooks, cause)
}

func (r *Response) flushHeadLocked() error {
	if r.state != stateFresh {
		return nil
	}
	r.state = stateHeadersSent
	if err := r.sink.WriteHead(r.status, r.header.Clone()); err != nil {
		return fmt.Errorf("express: write head: %w", err)
	}
	return nil
}

func (r *Response) writeLocked(p []byte) error {
	if err := r.sink.WriteBody(p); err != nil {
		return fmt.Errorf("express: write body: %w", err)
	}
	r.size += len(p)
	return nil
}

// endLocked moves the response to its terminal state. With a nil cause the
// end-of-message marker is written; otherwise the sink is only released.
// The returned hooks must run after r.mu is unlocked.
func (r *Response) endLocked(cause error, useSink bool) ([]func(*Response), error) {
	if useSink {
		if endErr := r.sink.End(); endErr != nil && cause == nil {
			cause = fmt.Errorf("express: end response: %w", endErr)
		}
	}
	r.state = stateEnded
	r.err = cause
	close(r.done)
	hooks := r.finish
	r.finish = nil
	return hooks, cause
}

func (r *Response) release(hooks []func(*Response), err error) {
	if err != nil {
		r.report(err)
	}
	for _, fn := range hooks {
		fn(r)
	}
}

func (r *Response) report(err error) {
	r.logger.Error("response failed", slog.String("error", err.Error()))
	if r.onError != nil {
		r.onError(r, err)
	}
}
