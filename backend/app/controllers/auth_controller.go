package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"pt1/backend/app/dto"
	"pt1/backend/app/middleware"
	"pt1/backend/app/services"
)

type AuthController struct {
	Tokens *services.TokenService
}

func NewAuthController(tokens *services.TokenService) *AuthController {
	return &AuthController{Tokens: tokens}
}

// Exchange trades the active root token for a fresh session token. The
// router guards this route with RequireRoot.
func (c *AuthController) Exchange(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	session, expiresAt, err := c.Tokens.Exchange(token)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid or missing token"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.ExchangeResponse{
		SessionToken: session,
		ExpiresAt:    expiresAt.UTC().Format(time.RFC3339),
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
	})
}

// Verify confirms the caller's session token and reports token metadata.
// The router guards this route with RequireSession, so reaching the handler
// means the token was accepted.
func (c *AuthController) Verify(w http.ResponseWriter, r *http.Request) {
	info := c.Tokens.TokenInfo(middleware.ExtractToken(r))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.VerifyResponse{
		Authenticated:    true,
		Message:          "Token is valid",
		TokenName:        info.Name,
		TokenDescription: info.Description,
	})
}
