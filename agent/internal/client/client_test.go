package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExchangeStoresSessionToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/token/exchange" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Token") != "root-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"session_token": "sess-1", "expires_in": 3600})
	}))
	defer srv.Close()

	c := New(srv.URL)
	token, err := c.Exchange("root-token")
	if err != nil {
		t.Fatal(err)
	}
	if token != "sess-1" || c.Token != "sess-1" {
		t.Fatalf("token = %q, client token = %q", token, c.Token)
	}

	if _, err := c.Exchange("wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong root error = %v, want ErrUnauthorized", err)
	}
}

func TestNextCommand(t *testing.T) {
	empty := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("client_id"); got != "pc1" {
			t.Fatalf("client_id = %q", got)
		}
		if empty {
			json.NewEncoder(w).Encode(map[string]any{"command": nil})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"command": "echo hi", "command_id": "abc12345"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Token = "sess"

	command, id, err := c.NextCommand("pc1", "h", "u")
	if err != nil || command != "" || id != "" {
		t.Fatalf("empty poll = %q/%q/%v", command, id, err)
	}

	empty = false
	command, id, err = c.NextCommand("pc1", "h", "u")
	if err != nil || command != "echo hi" || id != "abc12345" {
		t.Fatalf("poll = %q/%q/%v", command, id, err)
	}
}

func TestUnauthorizedSurfacesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.SubmitResult("abc12345", "out", "completed", "text"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}
