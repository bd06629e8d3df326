package express_test

import (
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jpl-au/express"
	"github.com/jpl-au/express/expresstest"
)

func TestHandleRunsFallbackLast(t *testing.T) {
	var calls []string
	stack := []express.Middleware{
		record(&calls, "a"),
		record(&calls, "b"),
		record(&calls, "c"),
	}

	rec := expresstest.NewRecorder()
	res := express.NewResponse(rec)
	express.Handle(stack, expresstest.NewRequest(http.MethodGet, "/"), res, func() {
		calls = append(calls, "fallback")
	})

	expected := []string{"a", "b", "c", "fallback"}
	if !reflect.DeepEqual(calls, expected) {
		t.Errorf("Expected %v, got %v", expected, calls)
	}
}

func TestHandleShortCircuit(t *testing.T) {
	var calls []string
	stack := []express.Middleware{
		record(&calls, "a"),
		func(req *express.Request, res *express.Response, next express.Next) {
			calls = append(calls, "stop")
			_ = res.Send("stopped")
		},
		record(&calls, "never"),
	}

	rec := expresstest.NewRecorder()
	res := express.NewResponse(rec)
	fallbackRan := false
	express.Handle(stack, expresstest.NewRequest(http.MethodGet, "/"), res, func() {
		fallbackRan = true
	})

	expected := []string{"a", "stop"}
	if !reflect.DeepEqual(calls, expected) {
		t.Errorf("Expected %v, got %v", expected, calls)
	}
	if fallbackRan {
		t.Error("Expected fallback not to run")
	}
	if rec.String() != "stopped" {
		t.Errorf("Expected body 'stopped', got %q", rec.String())
	}
}

func TestHandleFallbackRunsOnce(t *testing.T) {
	var saved express.Next
	stack := []express.Middleware{
		func(req *express.Request, res *express.Response, next express.Next) {
			saved = next
			next()
		},
	}

	fallbacks := 0
	res := express.NewResponse(expresstest.NewRecorder())
	express.Handle(stack, expresstest.NewRequest(http.MethodGet, "/"), res, func() {
		fallbacks++
	})

	saved()
	saved()

	if fallbacks != 1 {
		t.Errorf("Expected fallback to run once, ran %d times", fallbacks)
	}
}

func TestHandleEmptyStack(t *testing.T) {
	ran := false
	res := express.NewResponse(expresstest.NewRecorder())
	express.Handle(nil, expresstest.NewRequest(http.MethodGet, "/"), res, func() { ran = true })
	if !ran {
		t.Error("Expected fallback to run for an empty stack")
	}
}

func TestNextAfterEndIsInert(t *testing.T) {
	var calls []string
	app := express.New()
	app.Use(func(req *express.Request, res *express.Response, next express.Next) {
		_ = res.Send("first")
		next()
	})
	app.Use(func(req *express.Request, res *express.Response, next express.Next) {
		calls = append(calls, "second")
		_ = res.Send("second")
		next()
	})

	rec, res := expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/"))

	if !reflect.DeepEqual(calls, []string{"second"}) {
		t.Errorf("Expected downstream middleware to still run, got %v", calls)
	}
	if rec.String() != "first" {
		t.Errorf("Expected body 'first', got %q", rec.String())
	}
	if rec.HeadWrites != 1 || rec.Ends != 1 {
		t.Errorf("Expected one head and one end, got %d heads and %d ends", rec.HeadWrites, rec.Ends)
	}
	if res.Status() != http.StatusOK {
		t.Errorf("Expected status 200, got %d", res.Status())
	}
}

func TestHandleSnapshotsStack(t *testing.T) {
	var calls []string
	stack := make([]express.Middleware, 2)
	stack[0] = func(req *express.Request, res *express.Response, next express.Next) {
		calls = append(calls, "a")
		stack[1] = record(&calls, "replaced")
		next()
	}
	stack[1] = record(&calls, "b")

	res := express.NewResponse(expresstest.NewRecorder())
	express.Handle(stack, expresstest.NewRequest(http.MethodGet, "/"), res, func() {})

	expected := []string{"a", "b"}
	if !reflect.DeepEqual(calls, expected) {
		t.Errorf("Expected %v, got %v", expected, calls)
	}
}

func TestAsyncNext(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	add := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, s)
	}

	app := express.New()
	app.Use(func(req *express.Request, res *express.Response, next express.Next) {
		add("async")
		go func() {
			time.Sleep(10 * time.Millisecond)
			next()
		}()
	})
	app.Get("/", func(req *express.Request, res *express.Response, next express.Next) {
		add("handler")
		_ = res.Send("done")
	})

	rec, res := expresstest.Serve(app, expresstest.NewRequest(http.MethodGet, "/"))

	select {
	case <-res.Done():
	case <-time.After(time.Second):
		t.Fatal("Response did not end")
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(calls, []string{"async", "handler"}) {
		t.Errorf("Expected [async handler], got %v", calls)
	}
	if rec.String() != "done" {
		t.Errorf("Expected body 'done', got %q", rec.String())
	}
}
