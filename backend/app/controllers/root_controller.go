package controllers

import (
	"encoding/json"
	"net/http"

	"pt1/backend/app/repo"
)

type RootController struct {
	archive *repo.ArchiveRepository
}

func NewRootController(archive *repo.ArchiveRepository) *RootController {
	return &RootController{archive: archive}
}

// Overview is the unauthenticated service landing page.
func (c *RootController) Overview(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"service": "pt1 control plane",
		"status":  "running",
		"endpoints": map[string]string{
			"exchange":     "POST /auth/token/exchange",
			"verify":       "POST /auth/verify",
			"register":     "POST /register_client",
			"registry":     "GET /client_registry",
			"next_command": "GET /next_command",
			"send_command": "POST /send_command",
			"history":      "GET /command_history",
		},
	}
	if c.archive != nil {
		if n, err := c.archive.Count(); err == nil {
			out["archived_commands"] = n
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
