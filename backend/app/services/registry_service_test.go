package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestRegistry() (*RegistryService, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewRegistryService(300*time.Second, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestTouchRegistersNewClient(t *testing.T) {
	svc, _ := newTestRegistry()

	rec := svc.Touch("pc1", "host1", "alice")
	if rec.StableID != "pc1" || rec.ClientID != "pc1" {
		t.Fatalf("stable_id/client_id = %q/%q, want pc1", rec.StableID, rec.ClientID)
	}
	if rec.Status != StatusOnline {
		t.Fatalf("status = %q, want online", rec.Status)
	}
	if rec.FirstSeen != rec.LastSeen {
		t.Fatal("first contact should set first_seen == last_seen")
	}
}

func TestTouchRefreshesKnownClient(t *testing.T) {
	svc, now := newTestRegistry()

	first := svc.Touch("pc1", "host1", "alice")
	*now = now.Add(time.Minute)
	second := svc.Touch("pc1", "host2", "bob")

	if second.Hostname != "host2" || second.Username != "bob" {
		t.Fatalf("touch did not refresh hostname/username: %+v", second)
	}
	if second.FirstSeen != first.FirstSeen {
		t.Fatal("first_seen must not change on later contact")
	}
	if second.LastSeen <= first.LastSeen {
		t.Fatal("last_seen should advance on contact")
	}
}

func TestSweepOfflineAfterTimeout(t *testing.T) {
	svc, now := newTestRegistry()

	svc.Touch("pc1", "host1", "alice")
	*now = now.Add(301 * time.Second)

	clients, online := svc.Snapshot()
	if online != 0 {
		t.Fatalf("online count = %d, want 0", online)
	}
	if clients[0].Status != StatusOffline {
		t.Fatalf("status = %q, want offline after timeout", clients[0].Status)
	}
}

func TestClientStaysOnlineWithinTimeout(t *testing.T) {
	svc, now := newTestRegistry()

	svc.Touch("pc1", "host1", "alice")
	*now = now.Add(300 * time.Second)

	if _, online := svc.Snapshot(); online != 1 {
		t.Fatal("client silent exactly the timeout should still read online")
	}
}

func TestTerminate(t *testing.T) {
	svc, _ := newTestRegistry()

	if svc.Terminate("ghost") {
		t.Fatal("terminating an unknown client should return false")
	}

	svc.Touch("pc1", "host1", "alice")
	if !svc.Terminate("pc1") {
		t.Fatal("terminating a known client should return true")
	}
	rec, ok := svc.Get("pc1")
	if !ok {
		t.Fatal("terminated client should remain in the registry")
	}
	if rec.Status != StatusOffline || !rec.Terminated {
		t.Fatalf("terminate should force offline+terminated, got %+v", rec)
	}
}

func TestReconnectClearsTerminated(t *testing.T) {
	svc, _ := newTestRegistry()

	svc.Touch("pc1", "host1", "alice")
	svc.Terminate("pc1")

	rec := svc.Touch("pc1", "host1", "alice")
	if rec.Terminated {
		t.Fatal("reconnect should clear the terminated flag")
	}
	if rec.Status != StatusOnline {
		t.Fatalf("status = %q, want online after reconnect", rec.Status)
	}
}
