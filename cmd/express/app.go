package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpl-au/express"
	"github.com/jpl-au/express/config"
	"github.com/jpl-au/express/middleware"
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var demoUsers = []user{
	{ID: "1", Name: "Ada"},
	{ID: "2", Name: "Grace"},
}

// buildApp assembles the demonstration application from cfg.
func buildApp(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) *express.App {
	app := express.New(express.WithLogger(logger))

	app.Use(middleware.Recovery(logger), middleware.RequestID(), middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		metrics := middleware.NewMetrics("express", reg)
		app.Use(metrics.Middleware())
		app.Get(cfg.Metrics.Path, metrics.Handler())
	}
	if cfg.CORS.Enabled {
		app.Use(express.CORS(cfg.CORS.AllowOrigin))
	}
	if cfg.RateLimit.Enabled {
		app.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		}))
	}
	app.Use(express.QueryString)

	app.Get("/hello", hello)

	api := express.NewRouter()
	if cfg.Auth.Enabled {
		// Mounted middleware sees every request, so the check is limited to
		// targets under the prefix.
		api.Use(underPrefix(cfg.Auth.Prefix, middleware.JWT(middleware.JWTConfig{
			Secret: []byte(cfg.Auth.JWTSecret),
			Issuer: cfg.Auth.Issuer,
			Logger: logger,
		})))
	}
	api.Get("/users/", getUser)
	api.Get("/users", listUsers)
	api.Get("/whoami", whoami)
	app.Mount(cfg.Auth.Prefix, api)

	return app
}

func underPrefix(prefix string, mw express.Middleware) express.Middleware {
	return func(req *express.Request, res *express.Response, next express.Next) {
		if !strings.HasPrefix(req.Target(), prefix) {
			next()
			return
		}
		mw(req, res, next)
	}
}

func hello(req *express.Request, res *express.Response, next express.Next) {
	name, ok := req.Param("name")
	if !ok || name == "" {
		name = "world"
	}
	_ = res.JSON(map[string]string{"message": "hello, " + name})
}

func listUsers(req *express.Request, res *express.Response, next express.Next) {
	_ = res.JSON(demoUsers)
}

// getUser answers /users/?id=N.
func getUser(req *express.Request, res *express.Response, next express.Next) {
	id, _ := req.Param("id")
	for _, u := range demoUsers {
		if u.ID == id {
			_ = res.JSON(u)
			return
		}
	}
	res.SetStatus(http.StatusNotFound)
	_ = res.JSON(map[string]string{"error": "user not found"})
}

func whoami(req *express.Request, res *express.Response, next express.Next) {
	claims, ok := middleware.ClaimsFrom(req)
	if !ok {
		_ = res.JSON(map[string]string{"subject": "anonymous"})
		return
	}
	sub, _ := claims.GetSubject()
	_ = res.JSON(map[string]string{"subject": sub})
}
