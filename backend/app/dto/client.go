package dto

import "pt1/backend/app/services"

type RegisterClientRequest struct {
	ClientID string `json:"client_id"`
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

type RegisterClientResponse struct {
	StableID   string                `json:"stable_id"`
	Status     string                `json:"status"`
	ClientInfo services.ClientRecord `json:"client_info"`
}

type RegistryResponse struct {
	Clients     []services.ClientRecord `json:"clients"`
	OnlineCount int                     `json:"online_count"`
	TotalCount  int                     `json:"total_count"`
}

type TerminateResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	CommandID string `json:"command_id"`
}
