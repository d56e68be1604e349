package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pt1/backend/app/models"
	"pt1/backend/app/repo"
	"pt1/backend/app/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TranscriptService stores agent session transcripts on disk and keeps a
// metadata row per transcript in sqlite when a database is available.
type TranscriptService struct {
	dir  string
	repo *repo.TranscriptRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewTranscriptService(dir string, r *repo.TranscriptRepository, log zerolog.Logger) (*TranscriptService, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create transcript dir %s: %w", dir, err)
	}
	return &TranscriptService{dir: dir, repo: r, log: log, now: time.Now}, nil
}

// Save writes an uploaded transcript to disk and returns its metadata.
func (s *TranscriptService) Save(clientID, filename string, r io.Reader) (models.Transcript, error) {
	base := storage.SanitizeFilename(filename)
	if base == "" {
		base = "transcript.txt"
	}

	ts := s.now().UTC()
	id := uuid.NewString()
	stored := fmt.Sprintf("%s_%s_%s", clientID, ts.Format("20060102T150405"), base)
	path := filepath.Join(s.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("create transcript: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return models.Transcript{}, fmt.Errorf("write transcript: %w", err)
	}

	rec := models.Transcript{
		TranscriptID: id,
		ClientID:     clientID,
		Filename:     stored,
		Size:         size,
		CreatedAt:    ts,
	}
	if s.repo != nil {
		if err := s.repo.Create(&rec); err != nil {
			s.log.Warn().Err(err).Str("transcript_id", id).Msg("transcript metadata write failed")
		}
	}
	s.log.Info().
		Str("transcript_id", id).
		Str("client_id", clientID).
		Int64("size", size).
		Msg("transcript stored")
	return rec, nil
}

// List returns transcript metadata, newest first.
func (s *TranscriptService) List(clientID string, limit int) ([]models.Transcript, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(clientID, limit)
}

// Open returns the metadata and a reader for a stored transcript.
func (s *TranscriptService) Open(transcriptID string) (models.Transcript, io.ReadCloser, error) {
	if s.repo == nil {
		return models.Transcript{}, nil, fmt.Errorf("transcript store unavailable")
	}
	rec, err := s.repo.FindByID(transcriptID)
	if err != nil {
		return models.Transcript{}, nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, rec.Filename))
	if err != nil {
		return models.Transcript{}, nil, err
	}
	return *rec, f, nil
}
