package chi

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/cardquery/internal/logger"
	"github.com/kailas-cloud/cardquery/internal/validate"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// AuthConfig lists the accepted credentials.
type AuthConfig struct {
	// ServiceSecret is the only credential accepted on admin routes.
	ServiceSecret string
	APISecrets    []string
	// JWTSecret enables HS256 bearer tokens; JWTIssuer, when set, must match iss.
	JWTSecret string
	JWTIssuer string
}

func (c AuthConfig) enabled() bool {
	if c.ServiceSecret != "" || c.JWTSecret != "" {
		return true
	}
	for _, s := range c.APISecrets {
		if s != "" {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller.
type Principal struct {
	// ID keys the per-caller rate limit.
	ID    string
	Admin bool
}

type principalKey struct{}

// PrincipalFrom returns the caller stored by the auth middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// BearerAuthMiddleware validates Bearer credentials: the service secret,
// an API secret or a signed token. With no credentials configured every
// caller passes as an admin keyed by client address.
func BearerAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	apiSecrets := make([]string, 0, len(cfg.APISecrets))
	for _, s := range cfg.APISecrets {
		if s != "" {
			apiSecrets = append(apiSecrets, s)
		}
	}
	enabled := cfg.enabled()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if !enabled {
				p := Principal{ID: "ip:" + clientIP(r), Admin: true}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}
			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}
			token := strings.TrimSpace(auth[len(bearerPrefix):])
			if validate.TokenShape()("token", token) != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
				return
			}

			p, ok := authenticate(cfg, apiSecrets, token)
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
				return
			}
			ctx := logpkg.WithFields(r.Context(), zap.String("principal", p.ID))
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, principalKey{}, p)))
		})
	}
}

// RequireAdmin rejects callers that did not present the service secret.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFrom(r.Context()); !ok || !p.Admin {
			writeError(w, http.StatusForbidden, CodeForbidden, "admin credentials required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authenticate(cfg AuthConfig, apiSecrets []string, token string) (Principal, bool) {
	if cfg.ServiceSecret != "" && secretEqual(token, cfg.ServiceSecret) {
		return Principal{ID: "service", Admin: true}, true
	}
	for _, s := range apiSecrets {
		if secretEqual(token, s) {
			return Principal{ID: "api:" + fingerprint(s)}, true
		}
	}
	if cfg.JWTSecret != "" && validate.JWTShape.MatchString(token) {
		if sub, ok := verifyJWT(cfg, token); ok {
			return Principal{ID: "jwt:" + sub}, true
		}
	}
	return Principal{}, false
}

func verifyJWT(cfg AuthConfig, raw string) (string, bool) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil || !tok.Valid {
		return "", false
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		sub = fingerprint(raw)
	}
	return sub, true
}

func secretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
