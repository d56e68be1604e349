package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	dir := t.TempDir()
	return NewTokenService(
		filepath.Join(dir, "tokens.json"),
		filepath.Join(dir, ".session_tokens.json"),
		604800, 3600,
		zerolog.Nop(),
	)
}

func writeRootFile(t *testing.T, svc *TokenService, entries []rootTokenEntry) {
	t.Helper()
	data, err := json.Marshal(rootTokenFile{Tokens: entries})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(svc.rootFile, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestActiveKeepsFutureToken(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token := uuid.NewString()
	expiry := now.Add(48 * time.Hour)
	writeRootFile(t, svc, []rootTokenEntry{
		{Token: token, Name: "primary", ExpiresAt: expiry.Format(timeLayout)},
	})

	got, gotExpiry := svc.Active()
	if got != token {
		t.Fatalf("Active() = %q, want the persisted token %q", got, token)
	}
	if !gotExpiry.Equal(expiry) {
		t.Fatalf("expiry = %v, want %v", gotExpiry, expiry)
	}
}

func TestActiveRotatesExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	old := uuid.NewString()
	writeRootFile(t, svc, []rootTokenEntry{
		{Token: old, Name: "primary", ExpiresAt: now.Add(-time.Hour).Format(timeLayout)},
	})

	got, gotExpiry := svc.Active()
	if got == old {
		t.Fatal("expired token was not rotated")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("rotated token %q is not a UUID", got)
	}
	if want := now.Add(svc.rotation); !gotExpiry.Equal(want) {
		t.Fatalf("expiry = %v, want now+rotation %v", gotExpiry, want)
	}

	// rotation must be written back
	data, err := os.ReadFile(svc.rootFile)
	if err != nil {
		t.Fatal(err)
	}
	var f rootTokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Tokens) != 1 || f.Tokens[0].Token != got {
		t.Fatalf("persisted file does not carry the rotated token: %+v", f.Tokens)
	}
	if f.Tokens[0].Name != "primary" {
		t.Fatalf("rotation dropped the entry name: %q", f.Tokens[0].Name)
	}
}

func TestActiveHonorsPerEntryRotation(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rotation := int64(3600)
	writeRootFile(t, svc, []rootTokenEntry{
		{Token: uuid.NewString(), Name: "short", RotationSeconds: &rotation, ExpiresAt: now.Add(-time.Minute).Format(timeLayout)},
	})

	_, gotExpiry := svc.Active()
	if want := now.Add(time.Hour); !gotExpiry.Equal(want) {
		t.Fatalf("expiry = %v, want per-entry rotation %v", gotExpiry, want)
	}
}

func TestActiveSkipsInvalidUUIDEntries(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	valid := uuid.NewString()
	writeRootFile(t, svc, []rootTokenEntry{
		{Token: "not-a-uuid", Name: "bad"},
		{Token: valid, Name: "good", ExpiresAt: now.Add(time.Hour).Format(timeLayout)},
	})

	got, _ := svc.Active()
	if got != valid {
		t.Fatalf("Active() = %q, want the first valid entry %q", got, valid)
	}
}

func TestActiveSynthesizesDefaultWhenEmpty(t *testing.T) {
	svc := newTestTokenService(t)

	got, _ := svc.Active()
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("generated token %q is not a UUID", got)
	}

	data, err := os.ReadFile(svc.rootFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "generated-default") {
		t.Fatal("missing tokens file should persist a generated-default entry")
	}
}

func TestExchangeVerifyLifecycle(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	root, _ := svc.Active()
	session, expiresAt, err := svc.Exchange(root)
	if err != nil {
		t.Fatalf("Exchange() error: %v", err)
	}
	if want := now.Add(svc.sessionTTL); !expiresAt.Equal(want) {
		t.Fatalf("session expiry = %v, want %v", expiresAt, want)
	}
	if !svc.Verify(session) {
		t.Fatal("fresh session token should verify")
	}

	// at expiry the token is rejected and evicted
	now = expiresAt
	if svc.Verify(session) {
		t.Fatal("session token should be rejected at its expiry")
	}
	if _, ok := svc.sessions[session]; ok {
		t.Fatal("expired session token should be evicted")
	}
}

func TestExchangeRejectsNonActiveRoot(t *testing.T) {
	svc := newTestTokenService(t)
	svc.Active()

	if _, _, err := svc.Exchange(uuid.NewString()); err != ErrUnauthorized {
		t.Fatalf("Exchange with wrong root = %v, want ErrUnauthorized", err)
	}
	if len(svc.sessions) != 0 {
		t.Fatal("failed exchange must not create a session")
	}
}

func TestVerifyRoot(t *testing.T) {
	svc := newTestTokenService(t)
	root, _ := svc.Active()

	if !svc.VerifyRoot(root) {
		t.Fatal("active root token should verify")
	}
	if svc.VerifyRoot(uuid.NewString()) {
		t.Fatal("foreign token should not verify as root")
	}
	if svc.VerifyRoot("") {
		t.Fatal("empty token should not verify as root")
	}
}

func TestTokenInfo(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token := uuid.NewString()
	writeRootFile(t, svc, []rootTokenEntry{
		{Token: token, Name: "ops", Description: "ops token", ExpiresAt: now.Add(time.Hour).Format(timeLayout)},
	})

	info := svc.TokenInfo(token)
	if info.Name != "ops" {
		t.Fatalf("Name = %q, want ops", info.Name)
	}
	if !strings.Contains(info.Description, "ops token (expires at UTC ") {
		t.Fatalf("Description = %q, want expiry suffix", info.Description)
	}

	if got := svc.TokenInfo("something-else"); got.Name != "unknown" {
		t.Fatalf("foreign token info = %+v, want unknown", got)
	}
}

func TestSessionsSurviveRestart(t *testing.T) {
	svc := newTestTokenService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	root, _ := svc.Active()
	session, _, err := svc.Exchange(root)
	if err != nil {
		t.Fatal(err)
	}

	// a second service over the same files sees the persisted session
	svc2 := NewTokenService(svc.rootFile, svc.sessionFile, 604800, 3600, zerolog.Nop())
	svc2.now = func() time.Time { return now.Add(time.Minute) }
	if !svc2.Verify(session) {
		t.Fatal("persisted session token should verify after restart")
	}
}
