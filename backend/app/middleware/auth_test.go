package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"pt1/backend/app/services"

	"github.com/rs/zerolog"
)

func newAuth(t *testing.T) (*Auth, string, string) {
	t.Helper()
	dir := t.TempDir()
	tokens := services.NewTokenService(
		filepath.Join(dir, "tokens.json"),
		filepath.Join(dir, ".session_tokens.json"),
		604800, 3600,
		zerolog.Nop(),
	)
	root, _ := tokens.Active()
	session, _, err := tokens.Exchange(root)
	if err != nil {
		t.Fatal(err)
	}
	return &Auth{Tokens: tokens}, root, session
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestExtractTokenPrefersAPITokenHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-API-Token", "primary")
	r.Header.Set("Authorization", "Bearer secondary")
	if got := ExtractToken(r); got != "primary" {
		t.Fatalf("ExtractToken = %q, want primary", got)
	}
}

func TestExtractTokenBearerFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer secondary")
	if got := ExtractToken(r); got != "secondary" {
		t.Fatalf("ExtractToken = %q, want secondary", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ExtractToken(r); got != "" {
		t.Fatalf("ExtractToken = %q, want empty", got)
	}
}

func TestRequireRoot(t *testing.T) {
	mw, root, session := newAuth(t)
	h := mw.RequireRoot(okHandler())

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"active root", root, http.StatusOK},
		{"session token is wrong tier", session, http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/auth/token/exchange", nil)
			if tt.token != "" {
				r.Header.Set("X-API-Token", tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	mw, root, session := newAuth(t)
	h := mw.RequireSession(okHandler())

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"session token", session, http.StatusOK},
		{"root token is wrong tier", root, http.StatusUnauthorized},
		{"garbage", "nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/client_registry", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
