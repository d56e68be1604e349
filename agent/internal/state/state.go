package state

import "sync/atomic"

type appState struct {
	SessionToken atomic.Value // string
	ClientID     atomic.Value // string
}

var s appState

func SetSessionToken(t string) { s.SessionToken.Store(t) }
func GetSessionToken() string {
	if v := s.SessionToken.Load(); v != nil {
		if t, ok := v.(string); ok {
			return t
		}
	}
	return ""
}

func SetClientID(id string) { s.ClientID.Store(id) }
func GetClientID() string {
	if v := s.ClientID.Load(); v != nil {
		if t, ok := v.(string); ok {
			return t
		}
	}
	return ""
}
