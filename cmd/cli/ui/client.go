package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Session holds the authenticated HTTP connection to the control plane.
type Session struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewSession() *Session {
	return &Session{HTTP: &http.Client{Timeout: 15 * time.Second}}
}

type ClientEntry struct {
	ClientID   string `json:"client_id"`
	Hostname   string `json:"hostname"`
	Username   string `json:"username"`
	StableID   string `json:"stable_id"`
	LastSeen   int64  `json:"last_seen"`
	Status     string `json:"status"`
	Terminated bool   `json:"terminated"`
}

type CommandEntry struct {
	CommandID  string `json:"command_id"`
	StableID   string `json:"client_id"`
	Command    string `json:"command"`
	CreatedAt  int64  `json:"created_at"`
	FinishedAt int64  `json:"finished_at"`
	Status     string `json:"status"`
	Result     string `json:"result"`
	ResultType string `json:"result_type"`
}

// Login exchanges the root token for a session token.
func (s *Session) Login(host string, port int, rootToken string) error {
	s.BaseURL = fmt.Sprintf("http://%s:%d", host, port)
	req, _ := http.NewRequest(http.MethodPost, s.BaseURL+"/auth/token/exchange", nil)
	req.Header.Set("X-API-Token", rootToken)
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange rejected (status %d)", resp.StatusCode)
	}
	var out struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.SessionToken == "" {
		return errors.New("invalid exchange response")
	}
	s.Token = out.SessionToken
	return nil
}

func (s *Session) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Token", s.Token)
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Session) post(path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, s.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Token", s.Token)
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *Session) ListClients() ([]ClientEntry, error) {
	var out struct {
		Clients []ClientEntry `json:"clients"`
	}
	if err := s.get("/client_registry", &out); err != nil {
		return nil, err
	}
	return out.Clients, nil
}

func (s *Session) SendCommand(clientID, command string) (string, error) {
	var out struct {
		CommandID string `json:"command_id"`
	}
	err := s.post("/send_command", map[string]string{
		"client_id": clientID, "command": command,
	}, &out)
	return out.CommandID, err
}

func (s *Session) GetResult(commandID string) (CommandEntry, error) {
	var out CommandEntry
	err := s.get("/get_result/"+url.PathEscape(commandID), &out)
	return out, err
}

func (s *Session) History(stableID string, limit int) ([]CommandEntry, error) {
	q := url.Values{}
	if stableID != "" {
		q.Set("stable_id", stableID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Commands []CommandEntry `json:"commands"`
	}
	if err := s.get("/command_history?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Commands, nil
}

func (s *Session) Terminate(clientID string) error {
	return s.post("/terminate_client/"+url.PathEscape(clientID), map[string]string{}, nil)
}
