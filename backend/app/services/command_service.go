package services

import (
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"pt1/backend/app/models"
	"pt1/backend/app/repo"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	StatusPending   = "pending"
	StatusExecuting = "executing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	ResultTypeText  = "text"
	ResultTypeJSON  = "json"
	ResultTypeFile  = "file"
	ResultTypeFiles = "files"
	ResultTypeMixed = "mixed"

	// TerminateCommand is the sentinel queued for a client marked for
	// termination; agents exit when they receive it.
	TerminateCommand = "__terminate__"
)

// FileAttachment describes one uploaded file tied to a command result.
type FileAttachment struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	UploadedAt  int64  `json:"upload_timestamp"`
}

// CommandEntry is one row of the command ledger. Audit rows produced by
// LogClientCall share this shape with a client_call_* status.
type CommandEntry struct {
	CommandID   string           `json:"command_id"`
	StableID    string           `json:"client_id"`
	Command     string           `json:"command"`
	CreatedAt   int64            `json:"created_at"`
	ScheduledAt int64            `json:"scheduled_at,omitempty"`
	FinishedAt  int64            `json:"finished_at,omitempty"`
	Status      string           `json:"status"`
	Result      string           `json:"result,omitempty"`
	ResultType  string           `json:"result_type,omitempty"`
	Files       []FileAttachment `json:"files,omitempty"`

	seq int64
}

// CommandService holds the in-memory command ledger. The ledger is the
// source of truth; terminal entries are additionally mirrored into the
// archive table when a database is available.
type CommandService struct {
	mu      sync.Mutex
	entries map[string]*CommandEntry
	nextSeq int64

	archive *repo.ArchiveRepository
	log     zerolog.Logger
	now     func() time.Time
}

func NewCommandService(archive *repo.ArchiveRepository, log zerolog.Logger) *CommandService {
	return &CommandService{
		entries: make(map[string]*CommandEntry),
		archive: archive,
		log:     log,
		now:     time.Now,
	}
}

// Submit queues a command for a client and returns the new entry.
func (s *CommandService) Submit(stableID, command string) CommandEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()[:8]
	s.nextSeq++
	e := &CommandEntry{
		CommandID: id,
		StableID:  stableID,
		Command:   command,
		CreatedAt: s.now().Unix(),
		Status:    StatusPending,
		seq:       s.nextSeq,
	}
	s.entries[id] = e
	s.log.Info().
		Str("command_id", id).
		Str("client_id", stableID).
		Msg("command queued")
	return *e
}

// NextPending returns the oldest pending command for the client and marks it
// executing. ok is false when the queue is empty.
func (s *CommandService) NextPending(stableID string) (CommandEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *CommandEntry
	for _, e := range s.entries {
		if e.StableID != stableID || e.Status != StatusPending {
			continue
		}
		if best == nil || e.CreatedAt < best.CreatedAt ||
			(e.CreatedAt == best.CreatedAt && e.seq < best.seq) {
			best = e
		}
	}
	if best == nil {
		return CommandEntry{}, false
	}
	best.Status = StatusExecuting
	if best.ScheduledAt == 0 {
		best.ScheduledAt = s.now().Unix()
	}
	return *best, true
}

// Complete records the result for a command. Repeated submissions for the
// same command overwrite the previous result. ok is false when the command
// id is unknown.
func (s *CommandService) Complete(commandID, status, result, resultType string) (CommandEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[commandID]
	if !ok {
		return CommandEntry{}, false
	}
	if status != StatusCompleted && status != StatusFailed {
		status = StatusCompleted
	}
	e.Status = status
	e.Result = result
	if resultType == "" {
		resultType = ResultTypeText
	}
	e.ResultType = resultType
	e.FinishedAt = s.now().Unix()
	s.mirrorLocked(e)
	return *e, true
}

// Get returns a copy of the ledger entry for a command id.
func (s *CommandService) Get(commandID string) (CommandEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[commandID]
	if !ok {
		return CommandEntry{}, false
	}
	return *e, true
}

// OwnerOf resolves the stable client id a command belongs to.
func (s *CommandService) OwnerOf(commandID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[commandID]
	if !ok {
		return "", false
	}
	return e.StableID, true
}

// AttachFile records an uploaded file on a command and recomputes the
// result type from what the entry now holds.
func (s *CommandService) AttachFile(commandID string, att FileAttachment) (CommandEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[commandID]
	if !ok {
		return CommandEntry{}, false
	}
	if att.UploadedAt == 0 {
		att.UploadedAt = s.now().Unix()
	}
	e.Files = append(e.Files, att)

	hasText := e.Result != ""
	switch {
	case hasText:
		e.ResultType = ResultTypeMixed
	case len(e.Files) > 1:
		e.ResultType = ResultTypeFiles
	default:
		e.ResultType = ResultTypeFile
	}
	s.mirrorLocked(e)
	return *e, true
}

// CheckTimedOut reports executing commands whose scheduled time is older
// than the threshold. Entries are not modified; the agent may still report.
func (s *CommandService) CheckTimedOut(threshold time.Duration) []CommandEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-threshold).Unix()
	var out []CommandEntry
	for _, e := range s.entries {
		if e.Status == StatusExecuting && e.ScheduledAt != 0 && e.ScheduledAt < cutoff {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt < out[j].ScheduledAt })
	return out
}

// LogClientCall writes an audit row into the ledger for an HTTP call a
// client made. The row is terminal from the start.
func (s *CommandService) LogClientCall(stableID, label string, status int, detail string) CommandEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	s.nextSeq++
	e := &CommandEntry{
		CommandID:  uuid.NewString(),
		StableID:   stableID,
		Command:    label,
		CreatedAt:  now,
		FinishedAt: now,
		Status:     "client_call_" + strconv.Itoa(status),
		Result:     detail,
		ResultType: ResultTypeText,
		seq:        s.nextSeq,
	}
	s.entries[e.CommandID] = e
	return *e
}

// History returns ledger entries newest first, optionally filtered by
// client. limit <= 0 means no limit.
func (s *CommandService) History(stableID string, limit int) []CommandEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []CommandEntry
	for _, e := range s.entries {
		if stableID != "" && e.StableID != stableID {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].seq > out[j].seq
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *CommandService) mirrorLocked(e *CommandEntry) {
	if s.archive == nil {
		return
	}
	files, _ := json.Marshal(e.Files)
	row := &models.CommandArchive{
		CommandID:   e.CommandID,
		StableID:    e.StableID,
		Command:     e.Command,
		Status:      e.Status,
		Result:      e.Result,
		ResultType:  e.ResultType,
		Files:       string(files),
		SubmittedAt: e.CreatedAt,
		ScheduledAt: e.ScheduledAt,
		FinishedAt:  e.FinishedAt,
	}
	if err := s.archive.Upsert(row); err != nil {
		s.log.Warn().Err(err).Str("command_id", e.CommandID).Msg("archive mirror failed")
	}
}
