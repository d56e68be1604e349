// Package client is the agent's HTTP API against the control plane.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// ErrUnauthorized signals the session token was rejected; the caller should
// exchange a fresh one and retry.
var ErrUnauthorized = errors.New("unauthorized")

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type exchangeResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Exchange trades the root token for a session token and stores it on the
// client for subsequent calls.
func (c *Client) Exchange(rootToken string) (string, error) {
	req, _ := http.NewRequest(http.MethodPost, c.BaseURL+"/auth/token/exchange", nil)
	req.Header.Set("X-API-Token", rootToken)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("exchange: unexpected status %d", resp.StatusCode)
	}
	var er exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.SessionToken == "" {
		return "", errors.New("invalid exchange response")
	}
	c.Token = er.SessionToken
	return er.SessionToken, nil
}

func (c *Client) do(method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Token", c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

type registerRequest struct {
	ClientID string `json:"client_id"`
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

type registerResponse struct {
	StableID string `json:"stable_id"`
	Status   string `json:"status"`
}

func (c *Client) Register(clientID, hostname, username string) (string, error) {
	var out registerResponse
	err := c.do(http.MethodPost, "/register_client", registerRequest{
		ClientID: clientID, Hostname: hostname, Username: username,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.StableID, nil
}

type nextCommandResponse struct {
	Command   *string `json:"command"`
	CommandID string  `json:"command_id"`
}

// NextCommand polls for work. Empty command means nothing is queued.
func (c *Client) NextCommand(clientID, hostname, username string) (command, commandID string, err error) {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("hostname", hostname)
	q.Set("username", username)
	var out nextCommandResponse
	if err := c.do(http.MethodGet, "/next_command?"+q.Encode(), nil, &out); err != nil {
		return "", "", err
	}
	if out.Command == nil {
		return "", "", nil
	}
	return *out.Command, out.CommandID, nil
}

type submitResultRequest struct {
	CommandID  string `json:"command_id"`
	Result     string `json:"result"`
	Status     string `json:"status"`
	ResultType string `json:"result_type"`
}

func (c *Client) SubmitResult(commandID, result, status, resultType string) error {
	return c.do(http.MethodPost, "/submit_result", submitResultRequest{
		CommandID: commandID, Result: result, Status: status, ResultType: resultType,
	}, nil)
}

// UploadFiles sends result files for a command as multipart "files" parts.
func (c *Client) UploadFiles(commandID string, paths []string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/upload_files/"+commandID, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Token", c.Token)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("upload_files: status %d", resp.StatusCode)
	}
	return nil
}

// UploadTranscript sends a session transcript as the multipart "file" part.
func (c *Client) UploadTranscript(clientID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/agent_transcript/"+clientID, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Token", c.Token)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("agent_transcript: status %d", resp.StatusCode)
	}
	return nil
}
