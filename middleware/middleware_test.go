package middleware_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/express"
	"github.com/jpl-au/express/expresstest"
	"github.com/jpl-au/express/middleware"
)

func ok(body string) express.Middleware {
	return func(req *express.Request, res *express.Response, next express.Next) {
		_ = res.Send(body)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	app := express.New()
	app.Use(middleware.RequestID())
	app.Use(func(req *express.Request, res *express.Response, next express.Next) {
		seen = middleware.RequestIDFrom(req)
		next()
	})

	rec, _ := expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/"))

	require.NotEmpty(t, seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.HeaderMap.Get(middleware.RequestIDHeader))
}

func TestRequestIDReused(t *testing.T) {
	app := express.New()
	app.Use(middleware.RequestID())
	app.Get("/", ok("ok"))

	req := express.NewRequest(context.Background(), http.MethodGet, "/", http.Header{
		middleware.RequestIDHeader: []string{"abc-123"},
	})
	rec, _ := expresstest.Serve(app, req)

	assert.Equal(t, "abc-123", rec.HeaderMap.Get(middleware.RequestIDHeader))
	assert.Equal(t, "abc-123", middleware.RequestIDFrom(req))
}

func TestLoggerWritesEntryOnFinish(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := express.New()
	app.Use(middleware.RequestID(), middleware.Logger(logger))
	app.Get("/hello", ok("hi"))

	expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/hello?x=1"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"request completed"`)
	assert.Contains(t, out, `"target":"/hello?x=1"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"size":2`)
	assert.Contains(t, out, `"request_id":`)
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := express.New()
	app.Use(middleware.Logger(logger))

	expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/missing"))

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestRecoveryAnswers500(t *testing.T) {
	var buf bytes.Buffer
	app := express.New()
	app.Use(middleware.Recovery(slog.New(slog.NewTextHandler(&buf, nil))))
	app.Get("/boom", func(req *express.Request, res *express.Response, next express.Next) {
		panic("boom")
	})

	rec, res := expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, res.Ended())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecoveryAfterPartialWrite(t *testing.T) {
	app := express.New()
	app.Use(middleware.Recovery(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	app.Use(func(req *express.Request, res *express.Response, next express.Next) {
		_, _ = res.Write([]byte("partial"))
		panic("late")
	})

	rec, res := expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.String())
	assert.True(t, res.Ended())
	assert.Equal(t, 1, rec.Ends)
}

func TestRateLimit(t *testing.T) {
	app := express.New()
	app.Use(middleware.RateLimit(middleware.RateLimitConfig{RPS: 0.001, Burst: 2}))
	app.Get("/", ok("ok"))

	newReq := func(addr string) *express.Request {
		return express.NewRequest(context.Background(), http.MethodGet, "/", nil, express.WithRemoteAddr(addr))
	}

	for i := 0; i < 2; i++ {
		rec, _ := expresstest.Serve(app, newReq("10.0.0.1:1234"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec, _ := expresstest.Serve(app, newReq("10.0.0.1:5678"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.HeaderMap.Get("Retry-After"))

	rec, _ = expresstest.Serve(app, newReq("10.0.0.2:1234"))
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own bucket")
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	app := express.New()
	app.Use(middleware.RateLimit(middleware.RateLimitConfig{RPS: 0.001, Burst: 1}))
	app.Get("/", ok("ok"))

	allowed := 0
	for i := 0; i < 20; i++ {
		req := express.NewRequest(context.Background(), http.MethodGet, "/", http.Header{
			"X-Forwarded-For": []string{fmt.Sprintf("198.51.100.%d", i)},
		}, express.WithRemoteAddr("10.0.0.1:1234"))
		rec, _ := expresstest.Serve(app, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestClientIP(t *testing.T) {
	req := express.NewRequest(context.Background(), http.MethodGet, "/", http.Header{
		"X-Forwarded-For": []string{"203.0.113.7, 10.0.0.1"},
	}, express.WithRemoteAddr("10.0.0.1:80"))
	assert.Equal(t, "10.0.0.1", middleware.ClientIP(req))
	assert.Equal(t, "203.0.113.7", middleware.ForwardedClientIP(req))

	req = express.NewRequest(context.Background(), http.MethodGet, "/", nil, express.WithRemoteAddr("192.0.2.1:443"))
	assert.Equal(t, "192.0.2.1", middleware.ClientIP(req))
	assert.Equal(t, "192.0.2.1", middleware.ForwardedClientIP(req))

	req = express.NewRequest(context.Background(), http.MethodGet, "/", nil, express.WithRemoteAddr("pipe"))
	assert.Equal(t, "pipe", middleware.ClientIP(req))
}

func TestMiddlewareStackOrder(t *testing.T) {
	var buf bytes.Buffer
	app := express.New()
	app.Use(
		middleware.Recovery(nil),
		middleware.RequestID(),
		middleware.Logger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	app.Get("/", ok("ok"))

	rec, _ := expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/"))

	assert.Equal(t, "ok", rec.String())
	assert.Equal(t, 1, strings.Count(buf.String(), "request completed"))
}
