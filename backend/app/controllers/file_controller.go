package controllers

import (
	"encoding/json"
	"net/http"

	"pt1/backend/app/dto"
	"pt1/backend/app/services"
	"pt1/backend/app/storage"

	"github.com/rs/zerolog"
)

const maxUploadMemory = 32 << 20

type FileController struct {
	Commands *services.CommandService
	Files    *storage.FileStore
	Log      zerolog.Logger
}

func NewFileController(commands *services.CommandService, files *storage.FileStore, log zerolog.Logger) *FileController {
	return &FileController{Commands: commands, Files: files, Log: log}
}

// Upload stores the multipart "files" parts for a command and attaches
// them to its ledger entry.
func (c *FileController) Upload(w http.ResponseWriter, r *http.Request) {
	commandID := r.PathValue("command_id")
	if _, ok := c.Commands.Get(commandID); !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Command not found"}`))
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid multipart body"}`))
		return
	}

	var stored []string
	for _, hdr := range r.MultipartForm.File["files"] {
		f, err := hdr.Open()
		if err != nil {
			c.Log.Warn().Err(err).Str("filename", hdr.Filename).Msg("open upload part")
			continue
		}
		name, size, err := c.Files.Save(commandID, hdr.Filename, f)
		f.Close()
		if err != nil {
			c.Log.Warn().Err(err).Str("filename", hdr.Filename).Msg("store upload")
			continue
		}
		c.Commands.AttachFile(commandID, services.FileAttachment{
			Filename:    name,
			Size:        size,
			ContentType: hdr.Header.Get("Content-Type"),
		})
		stored = append(stored, name)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.UploadFilesResponse{
		Status:    "Files received",
		CommandID: commandID,
		Files:     stored,
	})
}

// Download streams a stored result file back with its recorded content type.
func (c *FileController) Download(w http.ResponseWriter, r *http.Request) {
	commandID := r.PathValue("command_id")
	filename := r.PathValue("filename")

	path, err := c.Files.Path(commandID, filename)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"File not found"}`))
		return
	}
	if entry, ok := c.Commands.Get(commandID); ok {
		for _, att := range entry.Files {
			if att.Filename == storage.SanitizeFilename(filename) && att.ContentType != "" {
				w.Header().Set("Content-Type", att.ContentType)
				break
			}
		}
	}
	http.ServeFile(w, r, path)
}
