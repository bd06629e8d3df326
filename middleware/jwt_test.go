package middleware_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/express"
	"github.com/jpl-au/express/expresstest"
	"github.com/jpl-au/express/middleware"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func jwtApp(cfg middleware.JWTConfig) (*express.App, *string) {
	subject := new(string)
	app := express.New()
	app.Use(middleware.JWT(cfg))
	app.Get("/private", func(req *express.Request, res *express.Response, next express.Next) {
		claims, _ := middleware.ClaimsFrom(req)
		*subject, _ = claims.GetSubject()
		_ = res.Send("secret")
	})
	return app, subject
}

func bearer(token string) *express.Request {
	return express.NewRequest(context.Background(), http.MethodGet, "/private", http.Header{
		"Authorization": []string{"Bearer " + token},
	})
}

func TestJWTAcceptsValidToken(t *testing.T) {
	app, subject := jwtApp(middleware.JWTConfig{Secret: testSecret, Issuer: "express"})
	token := signToken(t, testSecret, jwtlib.MapClaims{
		"sub": "alice",
		"iss": "express",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := expresstest.Serve(app, bearer(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret", rec.String())
	assert.Equal(t, "alice", *subject)
}

func TestJWTRejects(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *express.Request
	}{
		{"missing header", func(t *testing.T) *express.Request {
			return expresstest.NewRequest(http.MethodGet, "/private")
		}},
		{"wrong secret", func(t *testing.T) *express.Request {
			return bearer(signToken(t, []byte("other"), jwtlib.MapClaims{"sub": "eve", "iss": "express"}))
		}},
		{"expired", func(t *testing.T) *express.Request {
			return bearer(signToken(t, testSecret, jwtlib.MapClaims{
				"sub": "bob",
				"iss": "express",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}))
		}},
		{"wrong issuer", func(t *testing.T) *express.Request {
			return bearer(signToken(t, testSecret, jwtlib.MapClaims{"sub": "bob", "iss": "elsewhere"}))
		}},
		{"garbage", func(t *testing.T) *express.Request {
			return bearer("not-a-token")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, subject := jwtApp(middleware.JWTConfig{Secret: testSecret, Issuer: "express"})

			rec, _ := expresstest.Serve(app, tt.req(t))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/json", rec.HeaderMap.Get("Content-Type"))
			assert.JSONEq(t, `{"error":"authentication required"}`, rec.String())
			assert.Empty(t, *subject)
		})
	}
}

func TestJWTEmptySecretPanics(t *testing.T) {
	assert.PanicsWithValue(t, "middleware: empty secret passed to JWT", func() {
		middleware.JWT(middleware.JWTConfig{})
	})
}
