package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"pt1/backend/app/controllers"
	"pt1/backend/app/middleware"
	"pt1/backend/app/services"
	"pt1/backend/app/storage"

	"github.com/rs/zerolog"
)

type testServer struct {
	srv       *httptest.Server
	tokens    *services.TokenService
	commands  *services.CommandService
	rootToken string
	session   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	tokens := services.NewTokenService(
		filepath.Join(dir, "tokens.json"),
		filepath.Join(dir, ".session_tokens.json"),
		604800, 3600,
		zerolog.Nop(),
	)
	registry := services.NewRegistryService(300*time.Second, zerolog.Nop())
	commands := services.NewCommandService(nil, zerolog.Nop())
	files, err := storage.NewFileStore(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatal(err)
	}
	transcripts, err := services.NewTranscriptService(filepath.Join(dir, "transcripts"), nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	h := NewRouter(
		controllers.NewRootController(nil),
		controllers.NewAuthController(tokens),
		controllers.NewRegistryController(registry, commands),
		controllers.NewCommandController(commands, registry, 120*time.Second),
		controllers.NewFileController(commands, files, zerolog.Nop()),
		controllers.NewTranscriptController(transcripts),
		&middleware.Auth{Tokens: tokens},
	)
	history := &middleware.History{Commands: commands, Log: zerolog.Nop()}
	srv := httptest.NewServer(history.Record(h))
	t.Cleanup(srv.Close)

	root, _ := tokens.Active()
	ts := &testServer{srv: srv, tokens: tokens, commands: commands, rootToken: root}
	ts.session = ts.exchange(t, root)
	return ts
}

func (ts *testServer) exchange(t *testing.T, root string) string {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, ts.srv.URL+"/auth/token/exchange", nil)
	req.Header.Set("X-API-Token", root)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("exchange status = %d", resp.StatusCode)
	}
	var out struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.SessionToken == "" {
		t.Fatalf("bad exchange response: %v", err)
	}
	return out.SessionToken
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Token", ts.session)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func TestFullCommandRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	// register the agent
	resp, data := ts.do(t, http.MethodPost, "/register_client", map[string]string{
		"client_id": "pc1", "hostname": "host1", "username": "alice",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d: %s", resp.StatusCode, data)
	}
	var reg struct {
		StableID string `json:"stable_id"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(data, &reg); err != nil || reg.StableID != "pc1" || reg.Status != "registered" {
		t.Fatalf("register response: %s", data)
	}

	// empty poll
	resp, data = ts.do(t, http.MethodGet, "/next_command?client_id=pc1&hostname=host1&username=alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("poll status = %d", resp.StatusCode)
	}
	var next struct {
		Command   *string `json:"command"`
		CommandID string  `json:"command_id"`
	}
	if err := json.Unmarshal(data, &next); err != nil || next.Command != nil {
		t.Fatalf("empty poll response: %s", data)
	}

	// operator queues a command
	resp, data = ts.do(t, http.MethodPost, "/send_command", map[string]string{
		"client_id": "pc1", "command": "Get-Process",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send status = %d: %s", resp.StatusCode, data)
	}
	var sent struct {
		Status    string `json:"status"`
		CommandID string `json:"command_id"`
	}
	if err := json.Unmarshal(data, &sent); err != nil || sent.Status != "Command queued" || sent.CommandID == "" {
		t.Fatalf("send response: %s", data)
	}

	// agent polls and receives it
	_, data = ts.do(t, http.MethodGet, "/next_command?client_id=pc1", nil)
	if err := json.Unmarshal(data, &next); err != nil || next.Command == nil {
		t.Fatalf("poll response: %s", data)
	}
	if *next.Command != "Get-Process" || next.CommandID != sent.CommandID {
		t.Fatalf("dispatched %q/%q, want Get-Process/%s", *next.Command, next.CommandID, sent.CommandID)
	}

	// agent reports the result
	resp, data = ts.do(t, http.MethodPost, "/submit_result", map[string]string{
		"command_id": sent.CommandID, "result": "42 processes", "status": "completed", "result_type": "text",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d: %s", resp.StatusCode, data)
	}

	// operator reads it back
	resp, data = ts.do(t, http.MethodGet, "/get_result/"+sent.CommandID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get_result status = %d", resp.StatusCode)
	}
	var entry struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}
	if err := json.Unmarshal(data, &entry); err != nil || entry.Status != "completed" || entry.Result != "42 processes" {
		t.Fatalf("get_result response: %s", data)
	}
}

func TestRoutesRejectRootTokenOnSessionTier(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/client_registry", nil)
	req.Header.Set("X-API-Token", ts.rootToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("root token on session route: status = %d, want 401", resp.StatusCode)
	}
}

func TestSubmitResultUnknownCommand(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, "/submit_result", map[string]string{
		"command_id": "nope1234", "result": "x", "status": "completed",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", resp.StatusCode, data)
	}
}

func TestTerminateQueuesSentinel(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/register_client", map[string]string{
		"client_id": "pc1", "hostname": "h", "username": "u",
	})

	resp, data := ts.do(t, http.MethodPost, "/terminate_client/pc1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("terminate status = %d: %s", resp.StatusCode, data)
	}
	var out struct {
		CommandID string `json:"command_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil || out.CommandID == "" {
		t.Fatalf("terminate response: %s", data)
	}

	_, data = ts.do(t, http.MethodGet, "/next_command?client_id=pc1", nil)
	var next struct {
		Command *string `json:"command"`
	}
	if err := json.Unmarshal(data, &next); err != nil || next.Command == nil || *next.Command != services.TerminateCommand {
		t.Fatalf("terminated client should receive the sentinel: %s", data)
	}

	resp, _ = ts.do(t, http.MethodPost, "/terminate_client/ghost", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown client terminate status = %d, want 404", resp.StatusCode)
	}
}

func TestUploadAndDownloadFile(t *testing.T) {
	ts := newTestServer(t)

	entry := ts.commands.Submit("pc1", "collect")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "../report.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("file payload")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.srv.URL+"/upload_files/"+entry.CommandID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Token", ts.session)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d: %s", resp.StatusCode, data)
	}
	var up struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(data, &up); err != nil || len(up.Files) != 1 || up.Files[0] != "report.txt" {
		t.Fatalf("upload response: %s", data)
	}

	resp, data = ts.do(t, http.MethodGet, "/download_file/"+entry.CommandID+"/report.txt", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	if string(data) != "file payload" {
		t.Fatalf("downloaded %q", data)
	}

	got, _ := ts.commands.Get(entry.CommandID)
	if got.ResultType != services.ResultTypeFile || len(got.Files) != 1 {
		t.Fatalf("entry after upload: %+v", got)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, "/auth/verify", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d", resp.StatusCode)
	}
	var out struct {
		Authenticated bool   `json:"authenticated"`
		Message       string `json:"message"`
	}
	if err := json.Unmarshal(data, &out); err != nil || !out.Authenticated || out.Message != "Token is valid" {
		t.Fatalf("verify response: %s", data)
	}
}

func TestCommandHistoryEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.commands.Submit("pc1", "one")
	ts.commands.Submit("pc2", "two")

	resp, data := ts.do(t, http.MethodGet, "/command_history?stable_id=pc1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
	var out struct {
		Commands []struct {
			StableID string `json:"client_id"`
		} `json:"commands"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Commands[0].StableID != "pc1" {
		t.Fatalf("history response: %s", data)
	}
}
