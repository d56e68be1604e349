// Package transcript keeps a local log of everything the agent executed and
// ships it to the control plane when the session ends.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pt1/agent/internal/client"
	"pt1/agent/internal/state"
)

// Writer appends one block per executed command to a session file. A nil
// Writer is a no-op so callers do not have to guard every site.
type Writer struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func New(dir string) (*Writer, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	w := &Writer{now: time.Now}
	name := fmt.Sprintf("transcript-%s-%d.log", state.GetClientID(), w.now().Unix())
	w.path = filepath.Join(dir, name)
	header := fmt.Sprintf("session start %s client=%s\n",
		w.now().UTC().Format(time.RFC3339), state.GetClientID())
	if err := os.WriteFile(w.path, []byte(header), 0o644); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) Path() string {
	if w == nil {
		return ""
	}
	return w.path
}

// Append records one executed command and its outcome.
func (w *Writer) Append(commandID, command, status, output string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "[%s] %s %s\n$ %s\n%s\n",
		w.now().UTC().Format(time.RFC3339), commandID, status, command, output)
}

// Upload ships the session file under the identity and session token held in
// state, so a token refreshed mid-session is picked up.
func (w *Writer) Upload(api *client.Client) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	api.Token = state.GetSessionToken()
	return api.UploadTranscript(state.GetClientID(), w.path)
}
