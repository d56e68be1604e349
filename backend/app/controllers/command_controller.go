package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"pt1/backend/app/dto"
	"pt1/backend/app/services"
)

type CommandController struct {
	Commands       *services.CommandService
	Registry       *services.RegistryService
	CommandTimeout time.Duration
}

func NewCommandController(commands *services.CommandService, registry *services.RegistryService, timeout time.Duration) *CommandController {
	return &CommandController{Commands: commands, Registry: registry, CommandTimeout: timeout}
}

// Next is the agent poll. Every poll counts as registry contact, so a busy
// agent running a long command stays online as long as it keeps polling.
func (c *CommandController) Next(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	if clientID == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"client_id is required"}`))
		return
	}
	c.Registry.Touch(clientID, q.Get("hostname"), q.Get("username"))

	w.Header().Set("Content-Type", "application/json")
	entry, ok := c.Commands.NextPending(clientID)
	if !ok {
		_ = json.NewEncoder(w).Encode(dto.NextCommandResponse{Command: nil})
		return
	}
	_ = json.NewEncoder(w).Encode(dto.NextCommandResponse{
		Command:   &entry.Command,
		CommandID: entry.CommandID,
	})
}

func (c *CommandController) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.SendCommandRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ClientID == "" || req.Command == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"client_id and command are required"}`))
		return
	}
	entry := c.Commands.Submit(req.ClientID, req.Command)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.SendCommandResponse{
		Status:    "Command queued",
		CommandID: entry.CommandID,
		Timestamp: entry.CreatedAt,
	})
}

func (c *CommandController) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitResultRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.CommandID == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"command_id is required"}`))
		return
	}
	entry, ok := c.Commands.Complete(req.CommandID, req.Status, req.Result, req.ResultType)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Command not found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.SubmitResultResponse{
		Status:    "Result received",
		CommandID: entry.CommandID,
	})
}

func (c *CommandController) GetResult(w http.ResponseWriter, r *http.Request) {
	entry, ok := c.Commands.Get(r.PathValue("command_id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Command not found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entry)
}

func (c *CommandController) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stableID := q.Get("stable_id")
	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	commands := c.Commands.History(stableID, limit)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.HistoryResponse{Commands: commands, Count: len(commands)})
}

func (c *CommandController) TimedOut(w http.ResponseWriter, r *http.Request) {
	threshold := c.CommandTimeout
	if v := r.URL.Query().Get("threshold"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			threshold = time.Duration(secs) * time.Second
		}
	}
	entries := c.Commands.CheckTimedOut(threshold)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.TimedOutResponse{TimedOut: entries, Count: len(entries)})
}
