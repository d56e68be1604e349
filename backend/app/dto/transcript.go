package dto

import "pt1/backend/app/models"

type TranscriptUploadResponse struct {
	Status       string `json:"status"`
	TranscriptID string `json:"transcript_id"`
	ClientID     string `json:"client_id"`
	Size         int64  `json:"size"`
}

type TranscriptListResponse struct {
	Transcripts []models.Transcript `json:"transcripts"`
	Count       int                 `json:"count"`
}
