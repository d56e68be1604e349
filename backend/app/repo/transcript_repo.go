package repo

import (
	"pt1/backend/app/models"

	"gorm.io/gorm"
)

type TranscriptRepository struct{ db *gorm.DB }

func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository { return &TranscriptRepository{db: db} }

func (r *TranscriptRepository) Create(t *models.Transcript) error { return r.db.Create(t).Error }

func (r *TranscriptRepository) FindByID(transcriptID string) (*models.Transcript, error) {
	var t models.Transcript
	if err := r.db.Where("transcript_id = ?", transcriptID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns newest-first transcript rows, optionally filtered by client.
func (r *TranscriptRepository) List(clientID string, limit int) ([]models.Transcript, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.Order("id DESC").Limit(limit)
	if clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	var out []models.Transcript
	err := q.Find(&out).Error
	return out, err
}
