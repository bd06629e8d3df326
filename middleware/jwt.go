package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/jpl-au/express"
)

// ClaimsKey is the attached-value key holding the verified jwt.MapClaims.
const ClaimsKey = "jwt_claims"

// JWTConfig configures JWT.
type JWTConfig struct {
	// Secret is the HMAC key tokens must be signed with.
	Secret []byte
	// Issuer, when set, must match the iss claim.
	Issuer string
	// Audience, when set, must be present in the aud claim.
	Audience string
	// Logger receives rejected-token entries at debug level.
	Logger *slog.Logger
}

// JWT returns middleware that requires an HMAC-signed bearer token. Valid
// claims are attached under ClaimsKey and the chain continues; anything else
// is answered with 401 and the chain stops.
func JWT(cfg JWTConfig) express.Middleware {
	if len(cfg.Secret) == 0 {
		panic("middleware: empty secret passed to JWT")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(cfg.Audience))
	}
	parser := jwtlib.NewParser(opts...)
	keyFunc := func(*jwtlib.Token) (any, error) { return cfg.Secret, nil }

	return func(req *express.Request, res *express.Response, next express.Next) {
		claims, err := verifyBearer(parser, keyFunc, req.Header().Get("Authorization"))
		if err != nil {
			cfg.Logger.LogAttrs(req.Context(), slog.LevelDebug, "jwt rejected",
				slog.String("target", req.Target()),
				slog.String("error", err.Error()),
			)
			res.SetStatus(http.StatusUnauthorized)
			res.SetHeader("WWW-Authenticate", `Bearer realm="express"`)
			_ = res.JSON(map[string]string{"error": "authentication required"})
			return
		}
		req.SetValue(ClaimsKey, claims)
		next()
	}
}

// ClaimsFrom returns the claims attached by JWT.
func ClaimsFrom(req *express.Request) (jwtlib.MapClaims, bool) {
	claims, ok := req.Value(ClaimsKey).(jwtlib.MapClaims)
	return claims, ok
}

var errNoBearer = errors.New("missing bearer token")

func verifyBearer(parser *jwtlib.Parser, keyFunc jwtlib.Keyfunc, header string) (jwtlib.MapClaims, error) {
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return nil, errNoBearer
	}
	claims := jwtlib.MapClaims{}
	if _, err := parser.ParseWithClaims(tokenStr, claims, keyFunc); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
