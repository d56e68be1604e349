package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnauthorized is returned for every credential failure, at either tier.
// Callers get no signal about which check failed.
var ErrUnauthorized = errors.New("unauthorized")

const timeLayout = time.RFC3339

type TokenMeta struct {
	Name        string
	Description string
}

// rootTokenEntry mirrors one element of the tokens.json list.
type rootTokenEntry struct {
	Token           string `json:"token"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	RotationSeconds *int64 `json:"rotation_seconds"`
	ExpiresAt       string `json:"expires_at"`
}

type rootTokenFile struct {
	Tokens []rootTokenEntry `json:"tokens"`
}

// sessionEntry mirrors one value of the .session_tokens.json map.
type sessionEntry struct {
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
	CreatedAt    string `json:"created_at"`
}

type sessionRecord struct {
	refreshToken string
	expiresAt    time.Time
	createdAt    time.Time
}

// TokenService owns both credential tiers: the rotating root token list in
// tokens.json and the short-lived session tokens minted from the active root.
// The in-memory state is authoritative; both files are rewritten wholesale on
// every mutation and write failures are logged, not returned.
type TokenService struct {
	mu          sync.Mutex
	rootFile    string
	sessionFile string
	rotation    time.Duration
	sessionTTL  time.Duration
	log         zerolog.Logger
	now         func() time.Time

	activeToken  string
	activeExpiry time.Time
	activeName   string
	activeDesc   string

	sessions       map[string]sessionRecord
	sessionsLoaded bool
}

func NewTokenService(rootFile, sessionFile string, rotationSeconds, sessionSeconds int, log zerolog.Logger) *TokenService {
	return &TokenService{
		rootFile:    rootFile,
		sessionFile: sessionFile,
		rotation:    time.Duration(rotationSeconds) * time.Second,
		sessionTTL:  time.Duration(sessionSeconds) * time.Second,
		log:         log,
		now:         time.Now,
		sessions:    map[string]sessionRecord{},
	}
}

// Active returns the current root token and its expiry, electing and
// persisting a fresh one if the cached token is missing or expired.
func (s *TokenService) Active() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureActiveLocked()
	return s.activeToken, s.activeExpiry
}

// VerifyRoot reports whether token equals the currently active root token.
func (s *TokenService) VerifyRoot(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureActiveLocked()
	return token != "" && token == s.activeToken
}

// Exchange mints a session token for a valid root token and persists the
// session map. Expired sessions are swept first.
func (s *TokenService) Exchange(root string) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadSessionsLocked()
	s.sweepSessionsLocked()
	s.ensureActiveLocked()
	if root == "" || root != s.activeToken {
		return "", time.Time{}, ErrUnauthorized
	}

	token := uuid.NewString()
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	s.sessions[token] = sessionRecord{refreshToken: root, expiresAt: expiresAt, createdAt: now}
	s.persistSessionsLocked()

	s.log.Info().Str("session", token[:8]+"...").Time("expires_at", expiresAt).Msg("created session token")
	return token, expiresAt, nil
}

// Verify reports whether a session token exists and is unexpired. An expired
// token is evicted on the spot.
func (s *TokenService) Verify(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadSessionsLocked()
	rec, ok := s.sessions[token]
	if !ok {
		return false
	}
	if !rec.expiresAt.After(s.now()) {
		delete(s.sessions, token)
		s.persistSessionsLocked()
		return false
	}
	return true
}

// TokenInfo returns display metadata for /auth/verify. Only the active root
// token carries metadata; any other value reads as unknown.
func (s *TokenService) TokenInfo(token string) TokenMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureActiveLocked()
	if token != s.activeToken {
		return TokenMeta{Name: "unknown"}
	}
	desc := s.activeDesc
	expiry := s.activeExpiry.UTC().Format(timeLayout)
	if desc != "" {
		desc = fmt.Sprintf("%s (expires at UTC %s)", desc, expiry)
	} else {
		desc = fmt.Sprintf("Expires at UTC %s", expiry)
	}
	return TokenMeta{Name: s.activeName, Description: desc}
}

// DefaultRotation exposes the configured rotation interval for the startup banner.
func (s *TokenService) DefaultRotation() time.Duration { return s.rotation }

// ensureActiveLocked runs the active-root election: scan the persisted list
// in order, keep future-valid entries verbatim, re-mint expired or
// expiry-less ones in place, and elect the first candidate either way. The
// full updated list is always re-persisted so rotation survives restarts.
func (s *TokenService) ensureActiveLocked() {
	now := s.now()
	if s.activeToken != "" && s.activeExpiry.After(now) {
		return
	}

	entries := s.loadRootFileLocked()
	updated := make([]rootTokenEntry, 0, len(entries))
	elected := false

	for _, e := range entries {
		if _, err := uuid.Parse(e.Token); err != nil {
			s.log.Warn().Str("name", e.Name).Str("token", e.Token).Msg("invalid UUID token entry, skipping")
			continue
		}

		rotation := s.rotation
		if e.RotationSeconds != nil && *e.RotationSeconds > 0 {
			rotation = time.Duration(*e.RotationSeconds) * time.Second
		}

		expiresAt, err := time.Parse(timeLayout, e.ExpiresAt)
		if e.ExpiresAt != "" && err != nil {
			s.log.Warn().Str("name", e.Name).Str("expires_at", e.ExpiresAt).Msg("invalid expires_at, ignoring expiry")
		}

		if err == nil && expiresAt.After(now) {
			// Not expired; keep as-is.
			updated = append(updated, e)
			if !elected {
				s.setActiveLocked(e.Token, e.Name, e.Description, expiresAt)
				elected = true
			}
			continue
		}

		rotated := rootTokenEntry{
			Token:           uuid.NewString(),
			Name:            e.Name,
			Description:     e.Description,
			RotationSeconds: e.RotationSeconds,
			ExpiresAt:       now.Add(rotation).UTC().Format(timeLayout),
		}
		updated = append(updated, rotated)
		if !elected {
			s.setActiveLocked(rotated.Token, rotated.Name, rotated.Description, now.Add(rotation))
			elected = true
		}
	}

	if !elected {
		rotationSeconds := int64(s.rotation / time.Second)
		generated := rootTokenEntry{
			Token:           uuid.NewString(),
			Name:            "generated-default",
			Description:     "Generated because tokens.json had no valid entries",
			RotationSeconds: &rotationSeconds,
			ExpiresAt:       now.Add(s.rotation).UTC().Format(timeLayout),
		}
		updated = append(updated, generated)
		s.setActiveLocked(generated.Token, generated.Name, generated.Description, now.Add(s.rotation))
	}

	s.persistRootFileLocked(updated)
	s.log.Info().
		Str("token", s.activeToken).
		Time("expires_at", s.activeExpiry).
		Dur("rotation", s.rotation).
		Msg("active root token")
}

func (s *TokenService) setActiveLocked(token, name, desc string, expiry time.Time) {
	s.activeToken = token
	s.activeName = name
	s.activeDesc = desc
	s.activeExpiry = expiry
}

func (s *TokenService) loadRootFileLocked() []rootTokenEntry {
	data, err := os.ReadFile(s.rootFile)
	if err != nil {
		return nil
	}
	var f rootTokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		s.log.Warn().Err(err).Str("path", s.rootFile).Msg("unreadable tokens file, starting empty")
		return nil
	}
	return f.Tokens
}

func (s *TokenService) persistRootFileLocked(entries []rootTokenEntry) {
	data, err := json.MarshalIndent(rootTokenFile{Tokens: entries}, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("encode tokens file")
		return
	}
	if err := os.WriteFile(s.rootFile, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.rootFile).Msg("persist tokens file")
	}
}

func (s *TokenService) loadSessionsLocked() {
	if s.sessionsLoaded {
		return
	}
	s.sessionsLoaded = true

	data, err := os.ReadFile(s.sessionFile)
	if err != nil {
		return
	}
	var raw map[string]sessionEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Warn().Err(err).Str("path", s.sessionFile).Msg("unreadable session tokens file")
		return
	}

	now := s.now()
	loaded, skipped := 0, 0
	for token, e := range raw {
		expiresAt, err1 := time.Parse(timeLayout, e.ExpiresAt)
		createdAt, err2 := time.Parse(timeLayout, e.CreatedAt)
		if err1 != nil || err2 != nil {
			s.log.Warn().Msg("skipping invalid session token entry")
			continue
		}
		if !expiresAt.After(now) {
			skipped++
			continue
		}
		s.sessions[token] = sessionRecord{refreshToken: e.RefreshToken, expiresAt: expiresAt, createdAt: createdAt}
		loaded++
	}
	s.log.Info().Int("loaded", loaded).Int("expired", skipped).Msg("session tokens loaded from disk")
}

func (s *TokenService) sweepSessionsLocked() {
	now := s.now()
	removed := 0
	for token, rec := range s.sessions {
		if !rec.expiresAt.After(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info().Int("count", removed).Msg("cleaned up expired session tokens")
		s.persistSessionsLocked()
	}
}

func (s *TokenService) persistSessionsLocked() {
	out := make(map[string]sessionEntry, len(s.sessions))
	for token, rec := range s.sessions {
		out[token] = sessionEntry{
			RefreshToken: rec.refreshToken,
			ExpiresAt:    rec.expiresAt.UTC().Format(timeLayout),
			CreatedAt:    rec.createdAt.UTC().Format(timeLayout),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("encode session tokens")
		return
	}
	if err := os.WriteFile(s.sessionFile, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.sessionFile).Msg("persist session tokens")
	}
}
