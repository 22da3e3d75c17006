package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testServiceSecret = "service-secret-0123456789"
	testAPISecret     = "api-secret-abcdefghijklmn"
	testJWTSecret     = "jwt-signing-secret"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// principalHandler echoes the principal set by the middleware.
func principalHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		ServiceSecret: testServiceSecret,
		APISecrets:    []string{testAPISecret},
		JWTSecret:     testJWTSecret,
		JWTIssuer:     "cardquery-test",
	}
}

func signJWT(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tok
}

func serveAuth(cfg AuthConfig, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	BearerAuthMiddleware(cfg)(principalHandler()).ServeHTTP(rr, req)
	return rr
}

func decodePrincipal(t *testing.T, rr *httptest.ResponseRecorder) Principal {
	t.Helper()
	var p Principal
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode principal: %v", err)
	}
	return p
}

func TestAuthMiddleware_NoCredentialsConfigured(t *testing.T) {
	rr := serveAuth(AuthConfig{APISecrets: []string{"", ""}}, "/v1/rules", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	p := decodePrincipal(t, rr)
	if !p.Admin || p.ID != "ip:192.0.2.1" {
		t.Errorf("principal = %+v, want admin keyed by client address", p)
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rr := httptest.NewRecorder()
		BearerAuthMiddleware(testAuthConfig())(okHandler()).ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_Credentials(t *testing.T) {
	valid := signJWT(t, testJWTSecret, jwt.MapClaims{
		"sub": "user-42",
		"iss": "cardquery-test",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantID    string
		wantAdmin bool
	}{
		{"service secret", "Bearer " + testServiceSecret, http.StatusOK, "service", true},
		{"api secret", "Bearer " + testAPISecret, http.StatusOK, "api:" + fingerprint(testAPISecret), false},
		{"jwt", "Bearer " + valid, http.StatusOK, "jwt:user-42", false},
		{"missing header", "", http.StatusUnauthorized, "", false},
		{"basic scheme", "Basic " + testAPISecret, http.StatusUnauthorized, "", false},
		{"unknown secret", "Bearer some-other-secret-value", http.StatusUnauthorized, "", false},
		{"too short", "Bearer short", http.StatusUnauthorized, "", false},
		{"control characters", "Bearer abcdefghij\tklmnopqrst", http.StatusUnauthorized, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(testAuthConfig(), "/v1/translate", tt.header)
			if rr.Code != tt.wantCode {
				t.Fatalf("got %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				var resp ErrorResponse
				if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if resp.Code != CodeUnauthorized {
					t.Errorf("code = %q, want %q", resp.Code, CodeUnauthorized)
				}
				return
			}
			p := decodePrincipal(t, rr)
			if p.ID != tt.wantID || p.Admin != tt.wantAdmin {
				t.Errorf("principal = %+v, want ID %q admin %v", p, tt.wantID, tt.wantAdmin)
			}
		})
	}
}

func TestAuthMiddleware_RejectedTokens(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name  string
		token string
	}{
		{"wrong key", signJWT(t, "another-signing-key", jwt.MapClaims{"sub": "u", "iss": "cardquery-test", "exp": future})},
		{"expired", signJWT(t, testJWTSecret, jwt.MapClaims{"sub": "u", "iss": "cardquery-test", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no expiry", signJWT(t, testJWTSecret, jwt.MapClaims{"sub": "u", "iss": "cardquery-test"})},
		{"wrong issuer", signJWT(t, testJWTSecret, jwt.MapClaims{"sub": "u", "iss": "elsewhere", "exp": future})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(testAuthConfig(), "/v1/translate", "Bearer "+tt.token)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("got %d, want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_NoneAlgorithmRejected(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u",
		"iss": "cardquery-test",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rr := serveAuth(testAuthConfig(), "/v1/translate", "Bearer "+tok)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"service secret", "Bearer " + testServiceSecret, http.StatusOK},
		{"api secret", "Bearer " + testAPISecret, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/admin/mine", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rr := httptest.NewRecorder()
			BearerAuthMiddleware(testAuthConfig())(RequireAdmin(okHandler())).ServeHTTP(rr, req)
			if rr.Code != tt.wantCode {
				t.Errorf("got %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}

func TestRequireAdmin_NoPrincipal(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireAdmin(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rr.Code, http.StatusForbidden)
	}
}
