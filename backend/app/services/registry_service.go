package services

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ClientRecord is one registered agent. stable_id carries the same value as
// client_id; the duplicate field is kept for wire compatibility with the CLI.
type ClientRecord struct {
	ClientID   string `json:"client_id"`
	Hostname   string `json:"hostname"`
	Username   string `json:"username"`
	StableID   string `json:"stable_id"`
	FirstSeen  int64  `json:"first_seen"`
	LastSeen   int64  `json:"last_seen"`
	Status     string `json:"status"`
	Terminated bool   `json:"terminated"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// RegistryService tracks known agents and their liveness. The offline sweep
// is lazy: it runs inside every read instead of on a timer, so any contact
// (including an empty poll) keeps a busy agent online.
type RegistryService struct {
	mu             sync.Mutex
	clients        map[string]*ClientRecord
	offlineTimeout time.Duration
	log            zerolog.Logger
	now            func() time.Time
}

func NewRegistryService(offlineTimeout time.Duration, log zerolog.Logger) *RegistryService {
	return &RegistryService{
		clients:        map[string]*ClientRecord{},
		offlineTimeout: offlineTimeout,
		log:            log,
		now:            time.Now,
	}
}

// Touch upserts a client record on any contact. A known client gets its
// hostname/username/last_seen refreshed and is forced online; a reconnect
// clears a prior terminated flag.
func (s *RegistryService) Touch(clientID, hostname, username string) ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	if c, ok := s.clients[clientID]; ok {
		c.Hostname = hostname
		c.Username = username
		c.LastSeen = now
		c.Status = StatusOnline
		if c.Terminated {
			c.Terminated = false
			s.log.Info().Str("stable_id", clientID).Msg("cleared terminated flag, client reconnected")
		}
		return *c
	}

	c := &ClientRecord{
		ClientID:  clientID,
		Hostname:  hostname,
		Username:  username,
		StableID:  clientID,
		FirstSeen: now,
		LastSeen:  now,
		Status:    StatusOnline,
	}
	s.clients[clientID] = c
	s.log.Info().Str("stable_id", clientID).Str("hostname", hostname).Msg("registered new client")
	return *c
}

// Snapshot returns all records plus the online count, sweeping first.
func (s *RegistryService) Snapshot() ([]ClientRecord, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepOfflineLocked()

	out := make([]ClientRecord, 0, len(s.clients))
	online := 0
	for _, c := range s.clients {
		if c.Status == StatusOnline {
			online++
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstSeen != out[j].FirstSeen {
			return out[i].FirstSeen < out[j].FirstSeen
		}
		return out[i].StableID < out[j].StableID
	})
	return out, online
}

// Get returns a single record, sweeping first.
func (s *RegistryService) Get(stableID string) (ClientRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepOfflineLocked()

	c, ok := s.clients[stableID]
	if !ok {
		return ClientRecord{}, false
	}
	return *c, true
}

// Terminate marks a client terminated and offline immediately, regardless of
// last contact. Returns false for an unknown id.
func (s *RegistryService) Terminate(stableID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[stableID]
	if !ok {
		return false
	}
	c.Terminated = true
	c.Status = StatusOffline
	return true
}

func (s *RegistryService) sweepOfflineLocked() {
	cutoff := s.now().Unix() - int64(s.offlineTimeout/time.Second)
	for _, c := range s.clients {
		if c.Status == StatusOnline && c.LastSeen < cutoff {
			c.Status = StatusOffline
		}
	}
}
