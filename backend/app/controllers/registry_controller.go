package controllers

import (
	"encoding/json"
	"net/http"

	"pt1/backend/app/dto"
	"pt1/backend/app/services"
)

type RegistryController struct {
	Registry *services.RegistryService
	Commands *services.CommandService
}

func NewRegistryController(registry *services.RegistryService, commands *services.CommandService) *RegistryController {
	return &RegistryController{Registry: registry, Commands: commands}
}

func (c *RegistryController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterClientRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ClientID == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"client_id is required"}`))
		return
	}
	rec := c.Registry.Touch(req.ClientID, req.Hostname, req.Username)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.RegisterClientResponse{
		StableID:   rec.StableID,
		Status:     "registered",
		ClientInfo: rec,
	})
}

func (c *RegistryController) List(w http.ResponseWriter, r *http.Request) {
	clients, online := c.Registry.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.RegistryResponse{
		Clients:     clients,
		OnlineCount: online,
		TotalCount:  len(clients),
	})
}

func (c *RegistryController) GetOne(w http.ResponseWriter, r *http.Request) {
	rec, ok := c.Registry.Get(r.PathValue("stable_id"))
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Client not found"})
		return
	}
	_ = json.NewEncoder(w).Encode(rec)
}

// Terminate flags the client and queues the sentinel command its agent
// exits on.
func (c *RegistryController) Terminate(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	if !c.Registry.Terminate(clientID) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Client not found"}`))
		return
	}
	entry := c.Commands.Submit(clientID, services.TerminateCommand)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.TerminateResponse{
		Status:    "terminated",
		Message:   "Termination command queued for " + clientID,
		CommandID: entry.CommandID,
	})
}
