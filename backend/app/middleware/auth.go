package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"pt1/backend/app/services"
)

type Auth struct{ Tokens *services.TokenService }

// ExtractToken pulls the API token from the request, preferring the
// X-API-Token header over an Authorization bearer token.
func ExtractToken(r *http.Request) string {
	if t := r.Header.Get("X-API-Token"); t != "" {
		return t
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "invalid or missing token"})
}

// RequireRoot admits only the active root token.
func (a *Auth) RequireRoot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Tokens.VerifyRoot(ExtractToken(r)) {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession admits only unexpired session tokens.
func (a *Auth) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Tokens.Verify(ExtractToken(r)) {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
