package dto

type ExchangeResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
}

type VerifyResponse struct {
	Authenticated    bool   `json:"authenticated"`
	Message          string `json:"message"`
	TokenName        string `json:"token_name,omitempty"`
	TokenDescription string `json:"token_description,omitempty"`
}
