package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"pt1/backend/app/dto"
	"pt1/backend/app/services"
)

type TranscriptController struct {
	Transcripts *services.TranscriptService
}

func NewTranscriptController(transcripts *services.TranscriptService) *TranscriptController {
	return &TranscriptController{Transcripts: transcripts}
}

// Upload stores one transcript file sent as the multipart "file" part.
func (c *TranscriptController) Upload(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	f, hdr, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"file part is required"}`))
		return
	}
	defer f.Close()

	rec, err := c.Transcripts.Save(clientID, hdr.Filename, f)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to store transcript"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.TranscriptUploadResponse{
		Status:       "Transcript received",
		TranscriptID: rec.TranscriptID,
		ClientID:     rec.ClientID,
		Size:         rec.Size,
	})
}

func (c *TranscriptController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	recs, err := c.Transcripts.List(q.Get("client_id"), limit)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to list transcripts"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.TranscriptListResponse{Transcripts: recs, Count: len(recs)})
}

// Get returns transcript content as text, or its metadata with format=json.
func (c *TranscriptController) Get(w http.ResponseWriter, r *http.Request) {
	rec, rc, err := c.Transcripts.Open(r.PathValue("transcript_id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Transcript not found"}`))
		return
	}
	defer rc.Close()

	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.Copy(w, rc)
}
